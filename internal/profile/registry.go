// Package profile holds the executor profiles an operator can launch: for each
// agent kind, a set of named variants, each an agent.Config.
package profile

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/mattjoyce/launchpad/internal/agent"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// Registry maps profile IDs to agent configurations. It is built once and
// read-only afterwards, so it is safe for concurrent lookups.
type Registry struct {
	executors   map[agent.Kind]map[string]agent.Config
	source      string
	fingerprint string
}

// file is the on-disk layout:
//
//	executors:
//	  CLAUDE_CODE:
//	    DEFAULT: {}
//	    PLAN: {plan: true}
type file struct {
	Executors map[string]map[string]agent.Config `yaml:"executors"`
}

// Defaults returns the built-in profiles: a DEFAULT variant for every kind,
// plus a few common extras.
func Defaults() *Registry {
	r := &Registry{executors: make(map[agent.Kind]map[string]agent.Config), source: "builtin"}
	for _, k := range agent.Kinds() {
		r.executors[k] = map[string]agent.Config{DefaultVariant: {}}
	}
	r.executors[agent.KindClaudeCode]["PLAN"] = agent.Config{Plan: true}
	r.executors[agent.KindCodex]["AUTO"] = agent.Config{DangerouslySkipPermissions: true}
	r.executors[agent.KindGemini]["FLASH"] = agent.Config{Model: "gemini-2.5-flash"}
	return r
}

// Parse decodes a profiles document and layers it over Defaults: a variant in
// data replaces the built-in variant of the same name.
func Parse(data []byte) (*Registry, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	r := Defaults()
	r.source = "inline"
	// Keys are normalized, so two spellings of one name would otherwise
	// race on map order.
	kindKeys := make(map[agent.Kind]string, len(f.Executors))
	for name, variants := range f.Executors {
		kind, err := agent.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("parse profiles: %w", err)
		}
		if prev, dup := kindKeys[kind]; dup {
			return nil, fmt.Errorf("parse profiles: executors %q and %q both name %s", prev, name, kind)
		}
		kindKeys[kind] = name

		variantKeys := make(map[string]string, len(variants))
		for variant, cfg := range variants {
			v := normalizeVariant(variant)
			if v == "" {
				return nil, fmt.Errorf("parse profiles: %s has an empty variant name", kind)
			}
			if prev, dup := variantKeys[v]; dup {
				return nil, fmt.Errorf("parse profiles: %s variants %q and %q both name %s", kind, prev, variant, v)
			}
			variantKeys[v] = variant
			if _, err := agent.New(kind, cfg); err != nil {
				return nil, fmt.Errorf("parse profiles: %s:%s: %w", kind, v, err)
			}
			r.executors[kind][v] = cfg
		}
	}
	r.fingerprint = Fingerprint(data)
	return r, nil
}

// Load reads a profiles file. When pin is non-empty the file's BLAKE3
// fingerprint must equal it.
func Load(path, pin string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	if pin != "" {
		if got := Fingerprint(data); !strings.EqualFold(got, strings.TrimSpace(pin)) {
			return nil, fmt.Errorf("profiles %s: fingerprint mismatch: pinned %s, got %s", path, pin, got)
		}
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.source = path
	return r, nil
}

// Fingerprint is the hex BLAKE3-256 of data.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Resolve returns the configuration for id.
func (r *Registry) Resolve(id ID) (agent.Config, bool) {
	variants, ok := r.executors[id.Executor]
	if !ok {
		return agent.Config{}, false
	}
	cfg, ok := variants[normalizeVariant(id.VariantOrDefault())]
	return cfg, ok
}

// GetCodingAgent builds a fresh agent for id. Every call returns a new
// instance, so attaching approvals to one never leaks into another.
func (r *Registry) GetCodingAgent(id ID) (agent.CodingAgent, bool) {
	cfg, ok := r.Resolve(id)
	if !ok {
		return nil, false
	}
	a, err := agent.New(id.Executor, cfg)
	if err != nil {
		return nil, false
	}
	return a, true
}

// IDs lists every registered profile, sorted.
func (r *Registry) IDs() []ID {
	var ids []ID
	for _, kind := range agent.Kinds() {
		variants := r.executors[kind]
		for _, v := range slices.Sorted(maps.Keys(variants)) {
			ids = append(ids, NewID(kind, v))
		}
	}
	return ids
}

// Descriptor is the public view of one profile.
type Descriptor struct {
	ID     ID           `json:"id"`
	Config agent.Config `json:"config"`
}

// RedactedValue replaces env values in Descriptor.Redacted.
const RedactedValue = "[redacted]"

// Redacted returns a copy of d whose env values are replaced by
// RedactedValue. Names are kept.
func (d Descriptor) Redacted() Descriptor {
	if len(d.Config.Env) == 0 {
		return d
	}
	d.Config = d.Config.Clone()
	for k := range d.Config.Env {
		d.Config.Env[k] = RedactedValue
	}
	return d
}

// Describe returns every profile with its configuration, in IDs order. Env
// values are included; see Descriptor.Redacted.
func (r *Registry) Describe() []Descriptor {
	ids := r.IDs()
	out := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		cfg, _ := r.Resolve(id)
		out = append(out, Descriptor{ID: id, Config: cfg})
	}
	return out
}

// Source names where the registry came from: "builtin", "inline" or a path.
func (r *Registry) Source() string { return r.source }

// Fingerprint is the BLAKE3 of the loaded document, empty for builtin.
func (r *Registry) Fingerprint() string { return r.fingerprint }
