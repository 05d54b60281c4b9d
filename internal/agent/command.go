package agent

import (
	"errors"
	"slices"
	"strings"
)

// commandBuilder assembles an agent command line: a base command (which may
// itself contain leading args, e.g. "npx -y pkg") followed by params, then
// trailing positional args. Params added later still land before trailing.
type commandBuilder struct {
	base     string
	params   []string
	trailing []string
}

func newCommand(base string, params ...string) commandBuilder {
	return commandBuilder{base: base, params: params}
}

func (c commandBuilder) extend(params ...string) commandBuilder {
	c.params = append(slices.Clone(c.params), params...)
	return c
}

func (c commandBuilder) withTrailing(args ...string) commandBuilder {
	c.trailing = append(slices.Clone(c.trailing), args...)
	return c
}

func (c commandBuilder) withOverrides(o CmdOverrides) commandBuilder {
	if strings.TrimSpace(o.BaseCommandOverride) != "" {
		c.base = o.BaseCommandOverride
	}
	if len(o.AdditionalParams) > 0 {
		c = c.extend(o.AdditionalParams...)
	}
	return c
}

// build splits the base on whitespace and returns the program and its args.
// Quoting is not interpreted.
func (c commandBuilder) build() (string, []string, error) {
	fields := strings.Fields(c.base)
	if len(fields) == 0 {
		return "", nil, errors.New("empty base command")
	}
	args := append(fields[1:len(fields):len(fields)], c.params...)
	args = append(args, c.trailing...)
	return fields[0], args, nil
}

// String renders the command line for logs.
func (c commandBuilder) String() string {
	parts := append([]string{c.base}, c.params...)
	return strings.Join(append(parts, c.trailing...), " ")
}
