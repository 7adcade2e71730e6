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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/interlynk-io/lynk/pkg/catalog"
	"github.com/interlynk-io/lynk/pkg/config"
	"github.com/interlynk-io/lynk/pkg/download"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var updated = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func TestProductsTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, config.FormatTable, WithLocation(time.UTC))

	require.NoError(t, p.Products([]catalog.ProductSummary{
		{Name: "Acme", ID: "p1", Versions: 3, UpdatedAt: catalog.NewTimestamp(updated)},
	}))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "p1")
	assert.Contains(t, out, "2024-03-01 10:00:00 UTC")
}

func TestProductsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, config.FormatTable).Products(nil))
	assert.Equal(t, "No products found\n", buf.String())
}

func TestProductsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, config.FormatJSON).Products([]catalog.ProductSummary{
		{Name: "Acme", ID: "p1", Versions: 3, UpdatedAt: catalog.NewTimestamp(updated)},
	}))
	assert.JSONEq(t, `[{"name":"Acme","id":"p1","versions":3,"updatedAt":"2024-03-01T10:00:00Z"}]`, buf.String())
}

func TestVersionsTableSkipsMissingComponent(t *testing.T) {
	versions := []catalog.Version{
		{ID: "v1", UpdatedAt: catalog.NewTimestamp(updated), PrimaryComponent: &catalog.PrimaryComponent{Name: "acme-app", Version: "1.2.3"}},
		{ID: "v2", UpdatedAt: catalog.NewTimestamp(updated)},
	}

	var table bytes.Buffer
	require.NoError(t, NewPrinter(&table, config.FormatTable, WithLocation(time.UTC)).Versions(versions))
	assert.Contains(t, table.String(), "acme-app")
	assert.NotContains(t, table.String(), "v2")

	var js bytes.Buffer
	require.NoError(t, NewPrinter(&js, config.FormatJSON).Versions(versions))
	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Len(t, decoded, 2)
}

func TestStatusTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, config.FormatTable).Status(download.StatusFor("IN_PROGRESS")))
	out := buf.String()
	assert.Contains(t, out, "checksStatus")
	assert.Contains(t, out, "IN_PROGRESS")
	assert.Contains(t, out, "COMPLETED")
}

func TestLocalTime(t *testing.T) {
	p := NewPrinter(io.Discard, config.FormatTable, WithLocation(time.FixedZone("IST", 5*3600+1800)))
	assert.Equal(t, "2024-03-01 15:30:00 IST", p.LocalTime(updated))
	assert.Equal(t, "", p.LocalTime(time.Time{}))
}

func TestProductsTableShowsUnparsedTimestamp(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, config.FormatTable, WithLocation(time.UTC))

	require.NoError(t, p.Products([]catalog.ProductSummary{
		{Name: "Acme", ID: "p1", Versions: 1, UpdatedAt: catalog.ParseTimestamp("March 1st")},
	}))
	assert.Contains(t, buf.String(), "March 1st")
}

func TestRender(t *testing.T) {
	jsonArt := &download.Artifact{Content: []byte(`{"bomFormat":"CycloneDX"}`), ContentType: download.ContentTypeJSON}
	assert.Equal(t, "{\n  \"bomFormat\": \"CycloneDX\"\n}", string(Render(jsonArt, false)))
	assert.Equal(t, `{"bomFormat":"CycloneDX"}`, string(Render(jsonArt, true)))

	broken := &download.Artifact{Content: []byte(`{not json`), ContentType: download.ContentTypeJSON}
	assert.Equal(t, `{not json`, string(Render(broken, false)))

	csv := &download.Artifact{Content: []byte("a,b\n1,2\n"), ContentType: download.ContentTypeCSV}
	assert.Equal(t, "a,b\n1,2\n", string(Render(csv, false)))
}

func TestWriteArtifactToFile(t *testing.T) {
	dir := t.TempDir()
	art := &download.Artifact{Content: []byte(`{"a":1}`), ContentType: download.ContentTypeJSON, Filename: "server.json"}

	target := filepath.Join(dir, "out.json")
	sink, err := WriteArtifact(context.Background(), art, config.DownloadOptions{Output: target}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, target, sink.String())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(data))
}

func TestWriteArtifactUsesServerFilename(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	art := &download.Artifact{Content: []byte("<bom/>"), ContentType: download.ContentTypeXML, Filename: "server.xml"}
	_, err = WriteArtifact(context.Background(), art, config.DownloadOptions{}, io.Discard)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "server.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<bom/>", string(data))
}

func TestLocalFilename(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "acme-1.2.3.cdx.json", want: "acme-1.2.3.cdx.json"},
		{name: "traversal", in: "../escaped.xml", want: "escaped.xml"},
		{name: "absolute", in: "/home/u/.bashrc", want: ".bashrc"},
		{name: "windows separators", in: `..\..\sbom.json`, want: "sbom.json"},
		{name: "s3 scheme", in: "s3://bucket/key.json", wantErr: true},
		{name: "dot dot", in: "..", wantErr: true},
		{name: "trailing slash", in: "../", wantErr: true},
		{name: "root", in: "/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocalFilename(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsafeFilename)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteArtifactKeepsServerFilenameInWorkingDir(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "work")
	require.NoError(t, os.Mkdir(dir, 0o755))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	art := &download.Artifact{Content: []byte("<bom/>"), ContentType: download.ContentTypeXML, Filename: "../escaped.xml"}
	sink, err := WriteArtifact(context.Background(), art, config.DownloadOptions{}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "escaped.xml", sink.String())

	_, err = os.Stat(filepath.Join(root, "escaped.xml"))
	assert.True(t, os.IsNotExist(err))
	data, err := os.ReadFile(filepath.Join(dir, "escaped.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<bom/>", string(data))
}

func TestWriteArtifactRejectsServerS3Target(t *testing.T) {
	art := &download.Artifact{Content: []byte(`{}`), ContentType: download.ContentTypeJSON, Filename: "s3://attacker/sbom.json"}
	_, err := WriteArtifact(context.Background(), art, config.DownloadOptions{}, io.Discard)
	assert.ErrorIs(t, err, ErrUnsafeFilename)
}

func TestWriteArtifactToStdout(t *testing.T) {
	var buf bytes.Buffer
	art := &download.Artifact{Content: []byte(`{"a":1}`), ContentType: download.ContentTypeJSON}
	sink, err := WriteArtifact(context.Background(), art, config.DownloadOptions{Original: true}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "stdout", sink.String())
	assert.Equal(t, "{\"a\":1}\n", buf.String())
}

func TestStdoutSink(t *testing.T) {
	var buf bytes.Buffer
	sink := &StdoutSink{W: &buf}
	require.NoError(t, writeTo(context.Background(), sink, &download.Artifact{Content: []byte("a,b"), ContentType: download.ContentTypeCSV}, false))
	assert.Equal(t, "a,b\n", buf.String())
}

func TestOpenSink(t *testing.T) {
	sink, err := OpenSink(context.Background(), "", config.S3Options{})
	require.NoError(t, err)
	assert.IsType(t, &StdoutSink{}, sink)

	sink, err = OpenSink(context.Background(), "out.json", config.S3Options{})
	require.NoError(t, err)
	assert.IsType(t, &FileSink{}, sink)

	_, err = OpenSink(context.Background(), "s3://bucket/", config.S3Options{})
	assert.Error(t, err)
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://sboms/acme/1.2.3.json")
	require.NoError(t, err)
	assert.Equal(t, "sboms", bucket)
	assert.Equal(t, "acme/1.2.3.json", key)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/dir/", "http://bucket/key"} {
		_, _, err := ParseS3URL(bad)
		assert.Error(t, err, bad)
	}
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink(t *testing.T) {
	client := &fakeS3{}
	sink := &S3Sink{Client: client, Bucket: "sboms", Key: "acme.json"}

	require.NoError(t, writeTo(context.Background(), sink, &download.Artifact{Content: []byte(`{"a":1}`), ContentType: download.ContentTypeJSON}, true))
	assert.Equal(t, "sboms", *client.input.Bucket)
	assert.Equal(t, "acme.json", *client.input.Key)
	assert.Equal(t, `{"a":1}`, string(client.body))
	assert.Equal(t, "s3://sboms/acme.json", sink.String())

	failing := &S3Sink{Client: &fakeS3{err: errors.New("denied")}, Bucket: "sboms", Key: "acme.json"}
	assert.ErrorContains(t, failing.Write(context.Background(), []byte("x")), "denied")
}
