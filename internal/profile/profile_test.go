package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mattjoyce/launchpad/internal/agent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleProfiles = `
executors:
  claude-code:
    DEFAULT:
      model: sonnet
      env:
        CLAUDE_TEAM: core
    fast:
      model: haiku
      additional_params: ["--max-turns", "3"]
  CODEX:
    DEFAULT:
      base_command_override: /usr/local/bin/codex
`

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{"CLAUDE_CODE", ID{Executor: agent.KindClaudeCode}},
		{"claude-code:plan", ID{Executor: agent.KindClaudeCode, Variant: "PLAN"}},
		{" codex : auto ", ID{Executor: agent.KindCodex, Variant: "AUTO"}},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseID("EMACS")
	assert.Error(t, err)
}

func TestIDString(t *testing.T) {
	assert.Equal(t, "CLAUDE_CODE", NewID(agent.KindClaudeCode, "").String())
	assert.Equal(t, "GEMINI:FLASH", NewID(agent.KindGemini, "flash").String())
	assert.Equal(t, DefaultVariant, NewID(agent.KindGemini, "").VariantOrDefault())
}

func TestIDUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
	}{
		{"string", `"CODEX:AUTO"`, ID{Executor: agent.KindCodex, Variant: "AUTO"}},
		{"object", `{"executor":"CLAUDE_CODE","variant":"plan"}`, ID{Executor: agent.KindClaudeCode, Variant: "PLAN"}},
		{"legacy profile key", `{"profile":"GEMINI"}`, ID{Executor: agent.KindGemini}},
		{"kebab case", `{"executor":"cursor-agent"}`, ID{Executor: agent.KindCursorAgent}},
		{"null variant", `{"executor":"AMP","variant":null}`, ID{Executor: agent.KindAmp}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ID
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{`{"variant":"X"}`, `{"executor":"CODEX","profile":"AMP"}`, `"NOPE"`, `42`} {
		var id ID
		assert.Error(t, json.Unmarshal([]byte(bad), &id), bad)
	}
}

func TestIDMarshalJSONRoundTripsObjectForm(t *testing.T) {
	b, err := json.Marshal(NewID(agent.KindClaudeCode, "plan"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"executor":"CLAUDE_CODE","variant":"PLAN"}`, string(b))

	b, err = json.Marshal(NewID(agent.KindAmp, ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"executor":"AMP"}`, string(b))
}

func TestIDUnmarshalYAML(t *testing.T) {
	var doc struct {
		A ID `yaml:"a"`
		B ID `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: qwen-code:fast\nb: {profile: OPENCODE}\n"), &doc))
	assert.Equal(t, ID{Executor: agent.KindQwenCode, Variant: "FAST"}, doc.A)
	assert.Equal(t, ID{Executor: agent.KindOpencode}, doc.B)
}

func TestDefaultsHaveDefaultVariantForEveryKind(t *testing.T) {
	r := Defaults()
	for _, k := range agent.Kinds() {
		a, ok := r.GetCodingAgent(NewID(k, ""))
		require.True(t, ok, "kind %s", k)
		assert.Equal(t, k, a.Kind())
	}

	cfg, ok := r.Resolve(NewID(agent.KindClaudeCode, "plan"))
	require.True(t, ok)
	assert.True(t, cfg.Plan)
	assert.Equal(t, "builtin", r.Source())
	assert.Empty(t, r.Fingerprint())
}

func TestParseLayersOverDefaults(t *testing.T) {
	r, err := Parse([]byte(sampleProfiles))
	require.NoError(t, err)

	cfg, ok := r.Resolve(NewID(agent.KindClaudeCode, ""))
	require.True(t, ok)
	assert.Equal(t, "sonnet", cfg.Model)
	assert.Equal(t, map[string]string{"CLAUDE_TEAM": "core"}, cfg.Env)

	cfg, ok = r.Resolve(NewID(agent.KindClaudeCode, "FAST"))
	require.True(t, ok)
	assert.Equal(t, []string{"--max-turns", "3"}, cfg.AdditionalParams)

	cfg, ok = r.Resolve(NewID(agent.KindCodex, ""))
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin/codex", cfg.BaseCommandOverride)

	// Untouched built-ins survive.
	_, ok = r.Resolve(NewID(agent.KindClaudeCode, "PLAN"))
	assert.True(t, ok)
	assert.Equal(t, Fingerprint([]byte(sampleProfiles)), r.Fingerprint())
}

func TestParseRejectsBadDocuments(t *testing.T) {
	tests := map[string]string{
		"unknown kind":  "executors:\n  VIM:\n    DEFAULT: {}\n",
		"unknown field": "executors:\n  AMP:\n    DEFAULT:\n      modle: x\n",
		"empty variant": "executors:\n  AMP:\n    \" \": {}\n",
		"not yaml":      "executors: [",
	}
	for name, doc := range tests {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestParseRejectsKeysThatNormalizeToTheSameName(t *testing.T) {
	tests := map[string]struct {
		doc  string
		want string
	}{
		"variant case":  {"executors:\n  CLAUDE_CODE:\n    plan: {model: a}\n    PLAN: {model: b}\n", "both name PLAN"},
		"executor case": {"executors:\n  amp:\n    DEFAULT: {}\n  AMP:\n    FAST: {}\n", "both name AMP"},
		"executor dash": {"executors:\n  claude-code:\n    X: {}\n  CLAUDE_CODE:\n    Y: {}\n", "both name CLAUDE_CODE"},
	}
	for name, tt := range tests {
		_, err := Parse([]byte(tt.doc))
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), tt.want, name)
	}
}

func TestParseLowercaseVariantIsNormalized(t *testing.T) {
	r, err := Parse([]byte("executors:\n  CLAUDE_CODE:\n    plan: {model: a}\n"))
	require.NoError(t, err)
	cfg, ok := r.Resolve(NewID(agent.KindClaudeCode, "PLAN"))
	require.True(t, ok)
	assert.Equal(t, "a", cfg.Model)
}

func TestParseEmptyDocumentIsDefaults(t *testing.T) {
	r, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults().IDs(), r.IDs())
}

func TestGetCodingAgentMisses(t *testing.T) {
	r := Defaults()
	_, ok := r.GetCodingAgent(NewID(agent.KindAmp, "NOPE"))
	assert.False(t, ok)
	_, ok = r.GetCodingAgent(ID{Executor: "VIM"})
	assert.False(t, ok)
}

func TestGetCodingAgentReturnsFreshInstances(t *testing.T) {
	r := Defaults()
	a, ok := r.GetCodingAgent(NewID(agent.KindGemini, ""))
	require.True(t, ok)
	b, ok := r.GetCodingAgent(NewID(agent.KindGemini, ""))
	require.True(t, ok)
	assert.NotSame(t, a, b)
}

func TestLoadChecksFingerprintPin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleProfiles), 0o600))
	sum := Fingerprint([]byte(sampleProfiles))

	r, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, path, r.Source())

	_, err = Load(path, sum)
	require.NoError(t, err)

	_, err = Load(path, "deadbeef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fingerprint mismatch")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	assert.Error(t, err)
}

func TestIDsAndDescribeAreSorted(t *testing.T) {
	r := Defaults()
	ids := r.IDs()
	require.NotEmpty(t, ids)
	assert.Equal(t, NewID(agent.KindClaudeCode, "DEFAULT"), ids[0])
	assert.Equal(t, NewID(agent.KindClaudeCode, "PLAN"), ids[1])

	desc := r.Describe()
	require.Len(t, desc, len(ids))
	assert.True(t, desc[1].Config.Plan)
}

func TestDescriptorRedactedKeepsNamesAndOriginal(t *testing.T) {
	d := Descriptor{
		ID:     NewID(agent.KindAmp, "X"),
		Config: agent.Config{CmdOverrides: agent.CmdOverrides{Env: map[string]string{"TOKEN": "s3cret"}}},
	}
	red := d.Redacted()
	assert.Equal(t, map[string]string{"TOKEN": RedactedValue}, red.Config.Env)
	assert.Equal(t, "s3cret", d.Config.Env["TOKEN"])

	plain := Descriptor{ID: NewID(agent.KindAmp, "")}
	assert.Equal(t, plain, plain.Redacted())
}
