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

package lynkapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// Operation is one fixed GraphQL document together with what was learned by parsing it.
type Operation struct {
	Name      string
	Kind      string
	Document  string
	variables map[string]bool
}

// ParseOperation parses a single-operation GraphQL document.
func ParseOperation(document string) (Operation, error) {
	doc, err := parser.Parse(parser.ParseParams{Source: document})
	if err != nil {
		return Operation{}, fmt.Errorf("parsing GraphQL document: %w", err)
	}

	for _, def := range doc.Definitions {
		opDef, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if opDef.Name == nil || opDef.Name.Value == "" {
			return Operation{}, fmt.Errorf("GraphQL operation must be named")
		}

		vars := make(map[string]bool, len(opDef.VariableDefinitions))
		for _, vd := range opDef.VariableDefinitions {
			if vd.Variable != nil && vd.Variable.Name != nil {
				vars[vd.Variable.Name.Value] = true
			}
		}

		return Operation{
			Name:      opDef.Name.Value,
			Kind:      opDef.Operation,
			Document:  strings.TrimSpace(document),
			variables: vars,
		}, nil
	}

	return Operation{}, fmt.Errorf("no operation found in GraphQL document")
}

// MustParseOperation is ParseOperation for package level documents.
func MustParseOperation(document string) Operation {
	op, err := ParseOperation(document)
	if err != nil {
		panic(err)
	}
	return op
}

// Declares reports whether the operation declares $name.
func (o Operation) Declares(name string) bool {
	return o.variables[name]
}

// Variables returns the declared variable names in sorted order.
func (o Operation) Variables() []string {
	names := make([]string, 0, len(o.variables))
	for name := range o.variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (o Operation) checkVariables(vars map[string]interface{}) error {
	for name := range vars {
		if !o.variables[name] {
			return fmt.Errorf("variable %q is not declared by operation %s", name, o.Name)
		}
	}
	return nil
}
