package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattjoyce/launchpad/internal/agent"
	"gopkg.in/yaml.v3"
)

// DefaultVariant is used when an ID names no variant.
const DefaultVariant = "DEFAULT"

// ID selects one agent configuration: an executor kind plus an optional
// variant. Variants are case-insensitive.
type ID struct {
	Executor agent.Kind `json:"executor" yaml:"executor"`
	Variant  string     `json:"variant,omitempty" yaml:"variant,omitempty"`
}

// NewID builds a normalized ID.
func NewID(executor agent.Kind, variant string) ID {
	return ID{Executor: executor, Variant: normalizeVariant(variant)}
}

// ParseID parses "EXECUTOR" or "EXECUTOR:VARIANT".
func ParseID(s string) (ID, error) {
	name, variant, _ := strings.Cut(strings.TrimSpace(s), ":")
	kind, err := agent.ParseKind(name)
	if err != nil {
		return ID{}, err
	}
	return NewID(kind, variant), nil
}

func (id ID) String() string {
	if id.Variant == "" {
		return string(id.Executor)
	}
	return string(id.Executor) + ":" + id.Variant
}

// IsZero reports whether no executor was set.
func (id ID) IsZero() bool { return id.Executor == "" }

// VariantOrDefault returns the variant, or DefaultVariant when none was given.
func (id ID) VariantOrDefault() string {
	if id.Variant == "" {
		return DefaultVariant
	}
	return id.Variant
}

func normalizeVariant(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

// idFields is the object wire form. "profile" is the legacy name of executor.
type idFields struct {
	Executor string `json:"executor" yaml:"executor"`
	Profile  string `json:"profile" yaml:"profile"`
	Variant  string `json:"variant" yaml:"variant"`
}

func (f idFields) toID() (ID, error) {
	if f.Executor != "" && f.Profile != "" {
		return ID{}, errors.New("profile id: both executor and profile set")
	}
	name := f.Executor
	if name == "" {
		name = f.Profile
	}
	if name == "" {
		return ID{}, errors.New("profile id: executor is required")
	}
	kind, err := agent.ParseKind(name)
	if err != nil {
		return ID{}, fmt.Errorf("profile id: %w", err)
	}
	return NewID(kind, f.Variant), nil
}

// UnmarshalJSON accepts "EXEC[:VARIANT]" or {"executor"|"profile", "variant"}.
func (id *ID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseID(s)
		if err != nil {
			return fmt.Errorf("profile id: %w", err)
		}
		*id = parsed
		return nil
	}

	var f idFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("profile id: %w", err)
	}
	parsed, err := f.toID()
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (id *ID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseID(node.Value)
		if err != nil {
			return fmt.Errorf("profile id: %w", err)
		}
		*id = parsed
		return nil
	}

	var f idFields
	if err := node.Decode(&f); err != nil {
		return fmt.Errorf("profile id: %w", err)
	}
	parsed, err := f.toID()
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
