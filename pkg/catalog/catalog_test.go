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
	"os"
	"testing"

	"github.com/interlynk-io/lynk/pkg/lynkapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	vars map[string]interface{}
}

type fakeExecutor struct {
	calls     []call
	responses map[string]string
	errs      map[string]error
}

func (f *fakeExecutor) Execute(_ context.Context, op lynkapi.Operation, vars map[string]interface{}) (*lynkapi.Response, error) {
	f.calls = append(f.calls, call{name: op.Name, vars: vars})
	if err := f.errs[op.Name]; err != nil {
		return nil, err
	}
	return &lynkapi.Response{Data: json.RawMessage(f.responses[op.Name])}, nil
}

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/products.json")
	require.NoError(t, err)
	return string(data)
}

func TestFetchSizesListByCount(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]string{
		"GetProductsCount": `{"organization":{"productNodes":{"prodCount":2}}}`,
		"GetProducts":      loadFixture(t),
	}}

	cat, err := Fetch(context.Background(), exec, lynkapi.SchemaV2)
	require.NoError(t, err)

	require.Len(t, exec.calls, 2)
	assert.Equal(t, "GetProductsCount", exec.calls[0].name)
	assert.Equal(t, "GetProducts", exec.calls[1].name)
	assert.Equal(t, 2, exec.calls[1].vars["first"])

	assert.Equal(t, 2, cat.TotalCount)
	require.Len(t, cat.Products, 2)
	assert.Equal(t, "P", cat.Products[0].Name)
	assert.True(t, cat.Products[0].Enabled)
	assert.Nil(t, cat.Products[0].Environments[0].Versions[1].PrimaryComponent)
}

func TestFetchErrors(t *testing.T) {
	t.Run("count fails", func(t *testing.T) {
		exec := &fakeExecutor{errs: map[string]error{"GetProductsCount": errors.New("boom")}}
		_, err := Fetch(context.Background(), exec, lynkapi.SchemaV2)
		assert.ErrorContains(t, err, "Error getting products count")
		assert.Len(t, exec.calls, 1)
	})

	t.Run("count missing organization", func(t *testing.T) {
		exec := &fakeExecutor{responses: map[string]string{"GetProductsCount": `{"organization":null}`}}
		_, err := Fetch(context.Background(), exec, lynkapi.SchemaV2)
		assert.ErrorContains(t, err, "no organization products")
	})

	t.Run("list fails", func(t *testing.T) {
		exec := &fakeExecutor{
			responses: map[string]string{"GetProductsCount": `{"organization":{"productNodes":{"prodCount":1}}}`},
			errs:      map[string]error{"GetProducts": &lynkapi.StatusError{Code: 401}},
		}
		_, err := Fetch(context.Background(), exec, lynkapi.SchemaV2)
		assert.ErrorContains(t, err, "Error getting Interlynk data")
		assert.ErrorIs(t, err, lynkapi.ErrUnauthorized)
	})
}

func TestDecodeRejectsBadShapes(t *testing.T) {
	for _, data := range []string{``, `null`, `{}`, `{"organization":{}}`, `[1]`} {
		_, err := Decode(json.RawMessage(data))
		assert.Error(t, err, data)
	}
}

func TestSummaries(t *testing.T) {
	cat, err := Decode(json.RawMessage(loadFixture(t)))
	require.NoError(t, err)

	sums := cat.Summaries()
	require.Len(t, sums, 2)
	assert.Equal(t, "P", sums[0].Name)
	assert.Equal(t, 3, sums[0].Versions)
	assert.Equal(t, 0, sums[1].Versions)
	assert.Equal(t, 2024, sums[0].UpdatedAt.Time.Year())
}

func TestLookups(t *testing.T) {
	cat, err := Decode(json.RawMessage(loadFixture(t)))
	require.NoError(t, err)

	versions, ok := cat.Versions("p1", "e1")
	require.True(t, ok)
	assert.Len(t, versions, 2)

	_, ok = cat.Versions("p1", "missing")
	assert.False(t, ok)
	_, ok = cat.Versions("missing", "e1")
	assert.False(t, ok)

	prod, ok := cat.ProductByName("P")
	require.True(t, ok)
	env, ok := prod.EnvironmentByName("default")
	require.True(t, ok)

	v, ok := env.VersionByName("1.0")
	require.True(t, ok)
	assert.Equal(t, "v1", v.ID)
	assert.Equal(t, "1.0", v.Name())

	_, ok = env.VersionByName("")
	assert.False(t, ok, "versions without a primary component never match by name")

	v, ok = env.VersionByID("v2")
	require.True(t, ok)
	assert.Equal(t, "", v.Name())
}
