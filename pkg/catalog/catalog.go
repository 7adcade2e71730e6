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

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/interlynk-io/lynk/pkg/logger"
	"github.com/interlynk-io/lynk/pkg/lynkapi"
)

const fetchHint = "Possible problems: invalid security token, stale lynk or invalid INTERLYNK_API_URL"

// Executor sends one GraphQL operation.
type Executor interface {
	Execute(ctx context.Context, op lynkapi.Operation, vars map[string]interface{}) (*lynkapi.Response, error)
}

// Catalog is the read-only snapshot of products, environments and versions
// fetched once per invocation.
type Catalog struct {
	TotalCount int
	Products   []Product
}

type countData struct {
	Organization *struct {
		ProductNodes *struct {
			ProdCount int `json:"prodCount"`
		} `json:"productNodes"`
	} `json:"organization"`
}

type productsData struct {
	Organization *struct {
		ProductNodes *struct {
			ProdCount int       `json:"prodCount"`
			Products  []Product `json:"products"`
		} `json:"productNodes"`
	} `json:"organization"`
}

// Fetch sizes the product list with a count query and then fetches it in one request.
func Fetch(ctx context.Context, exec Executor, schema lynkapi.Schema) (*Catalog, error) {
	resp, err := exec.Execute(ctx, schema.ProductsCount(), nil)
	if err != nil {
		return nil, fmt.Errorf("Error getting products count: %w\n%s", err, fetchHint)
	}

	var cd countData
	if err := json.Unmarshal(resp.Data, &cd); err != nil {
		return nil, fmt.Errorf("Error getting products count: decoding response: %w\n%s", err, fetchHint)
	}
	if cd.Organization == nil || cd.Organization.ProductNodes == nil {
		return nil, fmt.Errorf("Error getting products count: response has no organization products\n%s", fetchHint)
	}
	count := cd.Organization.ProductNodes.ProdCount
	logger.LogDebug(ctx, "Products count fetched", "count", count)

	resp, err = exec.Execute(ctx, schema.Products(), map[string]interface{}{"first": count})
	if err != nil {
		return nil, fmt.Errorf("Error getting Interlynk data: %w\n%s", err, fetchHint)
	}

	cat, err := Decode(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("Error getting Interlynk data: %w\n%s", err, fetchHint)
	}
	logger.LogDebug(ctx, "Catalog fetched", "products", len(cat.Products), "total", cat.TotalCount)
	return cat, nil
}

// Decode turns the data member of a GetProducts response into a Catalog.
func Decode(data json.RawMessage) (*Catalog, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, errors.New("empty products response")
	}

	var pd productsData
	if err := json.Unmarshal(data, &pd); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	if pd.Organization == nil || pd.Organization.ProductNodes == nil {
		return nil, errors.New("response has no organization products")
	}

	return &Catalog{
		TotalCount: pd.Organization.ProductNodes.ProdCount,
		Products:   pd.Organization.ProductNodes.Products,
	}, nil
}

// Summaries lists every product with its total version count.
func (c *Catalog) Summaries() []ProductSummary {
	out := make([]ProductSummary, 0, len(c.Products))
	for _, p := range c.Products {
		out = append(out, ProductSummary{
			Name:      p.Name,
			UpdatedAt: p.UpdatedAt,
			ID:        p.ID,
			Versions:  p.VersionCount(),
		})
	}
	return out
}

// Versions returns the versions of one environment of one product.
func (c *Catalog) Versions(prodID, envID string) ([]Version, bool) {
	prod, ok := c.ProductByID(prodID)
	if !ok {
		return nil, false
	}
	env, ok := prod.EnvironmentByID(envID)
	if !ok {
		return nil, false
	}
	return env.Versions, true
}

// ProductByID returns the first product with the given id.
func (c *Catalog) ProductByID(id string) (*Product, bool) {
	for i := range c.Products {
		if c.Products[i].ID == id {
			return &c.Products[i], true
		}
	}
	return nil, false
}

// ProductByName returns the first product with the given name.
func (c *Catalog) ProductByName(name string) (*Product, bool) {
	for i := range c.Products {
		if c.Products[i].Name == name {
			return &c.Products[i], true
		}
	}
	return nil, false
}

func (p *Product) EnvironmentByID(id string) (*Environment, bool) {
	for i := range p.Environments {
		if p.Environments[i].ID == id {
			return &p.Environments[i], true
		}
	}
	return nil, false
}

func (p *Product) EnvironmentByName(name string) (*Environment, bool) {
	for i := range p.Environments {
		if p.Environments[i].Name == name {
			return &p.Environments[i], true
		}
	}
	return nil, false
}

func (e *Environment) VersionByID(id string) (*Version, bool) {
	for i := range e.Versions {
		if e.Versions[i].ID == id {
			return &e.Versions[i], true
		}
	}
	return nil, false
}

// VersionByName matches the primary component version; versions without a
// primary component are never matched.
func (e *Environment) VersionByName(name string) (*Version, bool) {
	for i := range e.Versions {
		v := &e.Versions[i]
		if v.PrimaryComponent == nil {
			continue
		}
		if v.PrimaryComponent.Version == name {
			return v, true
		}
	}
	return nil, false
}
