// Package env composes the environment handed to spawned agent processes.
//
// An ExecutionEnv is a flat name/value mapping built from layers with
// rightmost-wins precedence. The layers used at spawn time are, weakest first:
//
//   - base: inherited host variables plus configured vars
//   - profile: the resolved profile's own env overrides
//   - request: the env map carried by the spawn request
//
// Operations prefixed with "With" return a new owned copy and never mutate the
// receiver. Insert, Merge and InheritNamed mutate in place.
package env

import (
	"maps"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// ProfileOverrides is implemented by profile command configuration that may
// carry its own environment overrides. A nil map means "no overrides".
type ProfileOverrides interface {
	EnvOverrides() map[string]string
}

// ExecutionEnv holds environment variables to inject into an agent process.
type ExecutionEnv struct {
	vars map[string]string
}

// New returns an empty environment.
func New() *ExecutionEnv {
	return &ExecutionEnv{vars: make(map[string]string)}
}

// FromMap returns an environment holding a copy of vars.
func FromMap(vars map[string]string) *ExecutionEnv {
	e := New()
	e.Merge(vars)
	return e
}

// WithInherited imports every variable of the current process whose name
// starts with at least one of prefixes. Everything else is left out, so
// unrelated host configuration does not leak into agents.
func WithInherited(prefixes ...string) *ExecutionEnv {
	e := New()
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(key, prefix) {
				e.vars[key] = value
				break
			}
		}
	}
	return e
}

// InheritNamed imports the named variables from the current process.
// Names that are not set are skipped.
func (e *ExecutionEnv) InheritNamed(names ...string) {
	for _, name := range names {
		if value, ok := os.LookupEnv(name); ok {
			e.Insert(name, value)
		}
	}
}

// Insert sets or overwrites a single variable.
func (e *ExecutionEnv) Insert(key, value string) {
	if e.vars == nil {
		e.vars = make(map[string]string)
	}
	e.vars[key] = value
}

// Merge copies every entry of other into e, overwriting existing keys.
// Keys absent from other are untouched.
func (e *ExecutionEnv) Merge(other map[string]string) {
	if len(other) == 0 {
		return
	}
	if e.vars == nil {
		e.vars = make(map[string]string, len(other))
	}
	maps.Copy(e.vars, other)
}

// WithOverrides returns a copy of e with overrides merged on top.
func (e *ExecutionEnv) WithOverrides(overrides map[string]string) *ExecutionEnv {
	out := e.Clone()
	out.Merge(overrides)
	return out
}

// WithProfile returns a copy of e with the profile's env overrides merged on
// top. A nil profile or one without overrides yields an unchanged copy.
func (e *ExecutionEnv) WithProfile(p ProfileOverrides) *ExecutionEnv {
	if p == nil {
		return e.Clone()
	}
	return e.WithOverrides(p.EnvOverrides())
}

// Clone returns an independent copy. A nil receiver clones to an empty env.
func (e *ExecutionEnv) Clone() *ExecutionEnv {
	if e == nil {
		return New()
	}
	out := &ExecutionEnv{vars: make(map[string]string, len(e.vars))}
	maps.Copy(out.vars, e.vars)
	return out
}

// Get returns the value for key.
func (e *ExecutionEnv) Get(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	v, ok := e.vars[key]
	return v, ok
}

// ContainsKey reports whether key is set.
func (e *ExecutionEnv) ContainsKey(key string) bool {
	_, ok := e.Get(key)
	return ok
}

// Len returns the number of variables.
func (e *ExecutionEnv) Len() int {
	if e == nil {
		return 0
	}
	return len(e.vars)
}

// Vars returns a copy of the underlying mapping.
func (e *ExecutionEnv) Vars() map[string]string {
	return e.Clone().vars
}

// Environ returns the variables as sorted KEY=VALUE pairs.
func (e *ExecutionEnv) Environ() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// ApplyTo writes every variable into cmd's environment. When cmd.Env is nil
// the child would inherit the parent's environment, so the entries are layered
// on top of os.Environ() to keep that behavior. exec.Cmd keeps the last value
// for duplicate keys, which makes these entries win.
func (e *ExecutionEnv) ApplyTo(cmd *exec.Cmd) {
	if e.Len() == 0 {
		return
	}
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.Env = append(cmd.Env, e.Environ()...)
}
