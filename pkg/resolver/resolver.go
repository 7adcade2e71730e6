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

package resolver

import (
	"errors"
	"strings"

	"github.com/interlynk-io/lynk/pkg/catalog"
	"github.com/interlynk-io/lynk/pkg/config"
)

var (
	ErrProductNotFound     = errors.New("Product not found")
	ErrEnvironmentNotFound = errors.New("Environment not found")
	ErrVersionNotFound     = errors.New("Version not found")
)

// reservedEnvironments are matched case-insensitively; every other
// environment name is matched exactly.
var reservedEnvironments = map[string]bool{
	"default":     true,
	"development": true,
	"production":  true,
}

// RequestIdentity is a fully resolved product, environment and optionally version.
type RequestIdentity struct {
	ProdID    string `json:"prodId"`
	Prod      string `json:"prod"`
	EnvID     string `json:"envId"`
	Env       string `json:"env"`
	VerID     string `json:"verId,omitempty"`
	Ver       string `json:"ver,omitempty"`
	VerStatus string `json:"verStatus,omitempty"`
}

// HasVersion reports whether a version was resolved.
func (r RequestIdentity) HasVersion() bool { return r.VerID != "" }

// Resolver fills in the missing half of every id/name pair against a catalog.
type Resolver struct {
	cat *catalog.Catalog
}

func New(cat *catalog.Catalog) *Resolver {
	return &Resolver{cat: cat}
}

// Resolve runs product, environment and version resolution in that order.
// The version step only runs when a version name or id was given. The first
// failing step aborts the rest. A version id given without any product is
// looked up across the whole catalog, limited to the environment when one
// was given.
func (r *Resolver) Resolve(id config.Identity) (*RequestIdentity, error) {
	if id.ProdID == "" && id.Prod == "" && id.VerID != "" {
		return r.resolveByVersionID(id)
	}

	out := &RequestIdentity{}

	prod, err := r.resolveProduct(id, out)
	if err != nil {
		return nil, err
	}

	env, err := r.resolveEnvironment(prod, id, out)
	if err != nil {
		return nil, err
	}

	if id.Ver == "" && id.VerID == "" {
		return out, nil
	}
	if err := r.resolveVersion(env, id, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve is a shorthand for New(cat).Resolve(id).
func Resolve(cat *catalog.Catalog, id config.Identity) (*RequestIdentity, error) {
	return New(cat).Resolve(id)
}

// resolveProduct returns the matched catalog product, or nil when both halves
// were supplied and no lookup was needed.
func (r *Resolver) resolveProduct(id config.Identity, out *RequestIdentity) (*catalog.Product, error) {
	out.ProdID, out.Prod = id.ProdID, id.Prod

	switch {
	case id.ProdID != "" && id.Prod != "":
		prod, _ := r.cat.ProductByID(id.ProdID)
		return prod, nil
	case id.ProdID != "":
		prod, ok := r.cat.ProductByID(id.ProdID)
		if !ok {
			return nil, ErrProductNotFound
		}
		out.Prod = prod.Name
		return prod, nil
	case id.Prod != "":
		prod, ok := r.cat.ProductByName(id.Prod)
		if !ok {
			return nil, ErrProductNotFound
		}
		out.ProdID = prod.ID
		return prod, nil
	default:
		return nil, ErrProductNotFound
	}
}

func (r *Resolver) resolveEnvironment(prod *catalog.Product, id config.Identity, out *RequestIdentity) (*catalog.Environment, error) {
	name := NormalizeEnvironment(id.Env)
	out.EnvID, out.Env = id.EnvID, name

	if id.EnvID != "" && id.Env != "" {
		if prod == nil {
			return nil, nil
		}
		env, _ := prod.EnvironmentByID(id.EnvID)
		return env, nil
	}
	if prod == nil {
		return nil, ErrEnvironmentNotFound
	}

	if id.EnvID != "" {
		env, ok := prod.EnvironmentByID(id.EnvID)
		if !ok {
			return nil, ErrEnvironmentNotFound
		}
		out.Env = env.Name
		return env, nil
	}

	env, ok := prod.EnvironmentByName(name)
	if !ok {
		return nil, ErrEnvironmentNotFound
	}
	out.EnvID = env.ID
	return env, nil
}

func (r *Resolver) resolveVersion(env *catalog.Environment, id config.Identity, out *RequestIdentity) error {
	if env == nil {
		return ErrVersionNotFound
	}

	var (
		ver *catalog.Version
		ok  bool
	)
	if id.VerID != "" {
		ver, ok = env.VersionByID(id.VerID)
	} else {
		ver, ok = env.VersionByName(id.Ver)
	}
	if !ok {
		return ErrVersionNotFound
	}

	out.VerID = ver.ID
	out.Ver = id.Ver
	if out.Ver == "" {
		out.Ver = ver.Name()
	}
	out.VerStatus = ver.VulnRunStatus
	return nil
}

// resolveByVersionID locates a version by id alone, filling in the product and
// environment that own it. A version owned by an environment other than the
// one requested is reported as ErrEnvironmentNotFound.
func (r *Resolver) resolveByVersionID(id config.Identity) (*RequestIdentity, error) {
	envName := NormalizeEnvironment(id.Env)
	otherEnv := false

	for _, prod := range r.cat.Products {
		for i := range prod.Environments {
			env := &prod.Environments[i]
			ver, ok := env.VersionByID(id.VerID)
			if !ok {
				continue
			}
			if (id.EnvID != "" && env.ID != id.EnvID) || (id.Env != "" && env.Name != envName) {
				otherEnv = true
				continue
			}
			return &RequestIdentity{
				ProdID:    prod.ID,
				Prod:      prod.Name,
				EnvID:     env.ID,
				Env:       env.Name,
				VerID:     ver.ID,
				Ver:       ver.Name(),
				VerStatus: ver.VulnRunStatus,
			}, nil
		}
	}
	if otherEnv {
		return nil, ErrEnvironmentNotFound
	}
	return nil, ErrVersionNotFound
}

// NormalizeEnvironment applies the default environment name and lower-cases
// the reserved names.
func NormalizeEnvironment(name string) string {
	if name == "" {
		return config.DefaultEnvironment
	}
	if lower := strings.ToLower(name); reservedEnvironments[lower] {
		return lower
	}
	return name
}
