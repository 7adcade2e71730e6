// Copyright 2025 Interlynk.io
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/interlynk-io/lynk/pkg/catalog"
	"github.com/interlynk-io/lynk/pkg/config"
	"github.com/interlynk-io/lynk/pkg/download"
	"github.com/olekukonko/tablewriter"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// Printer renders listings as JSON or as tables.
type Printer struct {
	out    io.Writer
	format config.OutputFormat
	loc    *time.Location
}

type PrinterOption func(*Printer)

// WithLocation sets the zone timestamps are shown in; defaults to time.Local.
func WithLocation(loc *time.Location) PrinterOption {
	return func(p *Printer) { p.loc = loc }
}

func NewPrinter(out io.Writer, format config.OutputFormat, opts ...PrinterOption) *Printer {
	if out == nil {
		out = os.Stdout
	}
	p := &Printer{out: out, format: format, loc: time.Local}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// JSON writes v indented, followed by a newline.
func (p *Printer) JSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	_, err = fmt.Fprintln(p.out, string(b))
	return err
}

// LocalTime formats t in the printer's zone.
func (p *Printer) LocalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(p.loc).Format(timeLayout)
}

// timestamp shows ts in the printer's zone, or as sent when it did not parse.
func (p *Printer) timestamp(ts catalog.Timestamp) string {
	if ts.Time.IsZero() {
		return ts.Raw
	}
	return p.LocalTime(ts.Time)
}

func (p *Printer) Products(products []catalog.ProductSummary) error {
	if p.format == config.FormatJSON {
		return p.JSON(products)
	}
	if len(products) == 0 {
		_, err := fmt.Fprintln(p.out, "No products found")
		return err
	}

	rows := make([][]string, 0, len(products))
	for _, prod := range products {
		rows = append(rows, []string{prod.Name, prod.ID, fmt.Sprint(prod.Versions), p.timestamp(prod.UpdatedAt)})
	}
	return p.table([]string{"NAME", "ID", "VERSIONS", "UPDATED AT"}, rows)
}

// Versions prints the versions of an environment. Tables skip versions
// without a primary component; JSON prints them all.
func (p *Printer) Versions(versions []catalog.Version) error {
	if p.format == config.FormatJSON {
		return p.JSON(versions)
	}
	if len(versions) == 0 {
		_, err := fmt.Fprintln(p.out, "No versions found")
		return err
	}

	rows := make([][]string, 0, len(versions))
	for _, v := range versions {
		if v.PrimaryComponent == nil {
			continue
		}
		rows = append(rows, []string{v.ID, v.PrimaryComponent.Version, v.PrimaryComponent.Name, p.timestamp(v.UpdatedAt)})
	}
	return p.table([]string{"ID", "VERSION", "PRIMARY COMPONENT", "UPDATED AT"}, rows)
}

func (p *Printer) Status(status download.Status) error {
	if p.format == config.FormatJSON {
		return p.JSON(status)
	}

	var rows [][]string
	for _, kv := range status.Rows() {
		rows = append(rows, []string{kv[0], kv[1]})
	}
	return p.table([]string{"ACTION KEY", "STATUS"}, rows)
}

func (p *Printer) table(header []string, rows [][]string) error {
	table := tablewriter.NewWriter(p.out)
	cols := make([]any, len(header))
	for i, h := range header {
		cols[i] = h
	}
	table.Header(cols...)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return table.Render()
}
