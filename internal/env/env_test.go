package env

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileEnv map[string]string

func (p profileEnv) EnvOverrides() map[string]string { return p }

func TestProfileOverridesRuntimeEnv(t *testing.T) {
	base := New()
	base.Insert("VK_PROJECT_NAME", "runtime")
	base.Insert("FOO", "runtime")

	merged := base.WithOverrides(map[string]string{
		"FOO": "profile",
		"BAR": "profile",
	})

	assert.Equal(t, map[string]string{
		"VK_PROJECT_NAME": "runtime",
		"FOO":             "profile",
		"BAR":             "profile",
	}, merged.Vars())
}

func TestPrecedenceRequestOverProfileOverBase(t *testing.T) {
	base := FromMap(map[string]string{"K": "base", "ONLY_BASE": "b", "BP": "base"})
	profile := profileEnv{"K": "profile", "ONLY_PROFILE": "p", "BP": "profile", "PR": "profile"}
	request := map[string]string{"K": "request", "ONLY_REQUEST": "r", "PR": "request"}

	got := base.WithProfile(profile).WithOverrides(request)

	tests := []struct {
		key  string
		want string
	}{
		{"K", "request"},
		{"PR", "request"},
		{"BP", "profile"},
		{"ONLY_BASE", "b"},
		{"ONLY_PROFILE", "p"},
		{"ONLY_REQUEST", "r"},
	}
	for _, tt := range tests {
		v, ok := got.Get(tt.key)
		require.True(t, ok, "key %s missing", tt.key)
		assert.Equal(t, tt.want, v, "key %s", tt.key)
	}
	assert.Equal(t, 6, got.Len())
}

func TestMergeIdempotent(t *testing.T) {
	overrides := map[string]string{"A": "1", "B": "2"}
	base := FromMap(map[string]string{"A": "0", "C": "3"})

	once := base.WithOverrides(overrides)
	twice := base.WithOverrides(overrides).WithOverrides(overrides)

	assert.Equal(t, once.Vars(), twice.Vars())
}

func TestMergeLaterWins(t *testing.T) {
	e := New()
	e.Merge(map[string]string{"A": "first", "B": "first"})
	e.Merge(map[string]string{"A": "second"})

	assert.Equal(t, map[string]string{"A": "second", "B": "first"}, e.Vars())
}

func TestWithOverridesDoesNotMutateReceiver(t *testing.T) {
	base := FromMap(map[string]string{"A": "base"})
	out := base.WithOverrides(map[string]string{"A": "over", "B": "new"})

	assert.Equal(t, map[string]string{"A": "base"}, base.Vars())
	assert.Equal(t, map[string]string{"A": "over", "B": "new"}, out.Vars())

	out.Insert("C", "later")
	assert.False(t, base.ContainsKey("C"))
}

func TestWithProfileWithoutOverrides(t *testing.T) {
	base := FromMap(map[string]string{"A": "1"})

	assert.Equal(t, base.Vars(), base.WithProfile(nil).Vars())
	assert.Equal(t, base.Vars(), base.WithProfile(profileEnv(nil)).Vars())
}

func TestWithInheritedFiltersByPrefix(t *testing.T) {
	t.Setenv("FOO_BAR", "yes")
	t.Setenv("FOO_BAZ", "also")
	t.Setenv("BAZ", "no")

	e := WithInherited("FOO_")

	v, ok := e.Get("FOO_BAR")
	require.True(t, ok)
	assert.Equal(t, "yes", v)
	assert.True(t, e.ContainsKey("FOO_BAZ"))
	assert.False(t, e.ContainsKey("BAZ"))
}

func TestWithInheritedMultiplePrefixes(t *testing.T) {
	t.Setenv("LPT_ONE", "1")
	t.Setenv("LPX_TWO", "2")

	e := WithInherited("LPT_", "LPX_")
	assert.True(t, e.ContainsKey("LPT_ONE"))
	assert.True(t, e.ContainsKey("LPX_TWO"))

	assert.Equal(t, 0, WithInherited().Len())
}

func TestInheritNamedSkipsAbsent(t *testing.T) {
	t.Setenv("LP_PRESENT", "here")

	e := New()
	e.InheritNamed("LP_PRESENT", "LP_DEFINITELY_NOT_SET_4711")

	assert.Equal(t, map[string]string{"LP_PRESENT": "here"}, e.Vars())
}

func TestEnvironSorted(t *testing.T) {
	e := FromMap(map[string]string{"B": "2", "A": "1"})
	assert.Equal(t, []string{"A=1", "B=2"}, e.Environ())
}

func TestNilReceiver(t *testing.T) {
	var e *ExecutionEnv
	assert.Equal(t, 0, e.Len())
	assert.False(t, e.ContainsKey("X"))
	assert.Empty(t, e.Vars())
	assert.Nil(t, e.Environ())
}

func TestApplyToLayersOverParent(t *testing.T) {
	t.Setenv("LP_APPLY", "parent")
	t.Setenv("LP_KEEP", "kept")

	e := FromMap(map[string]string{"LP_APPLY": "child"})
	cmd := exec.Command("sh", "-c", `printf '%s,%s' "$LP_APPLY" "$LP_KEEP"`)
	e.ApplyTo(cmd)

	out, err := cmd.Output()
	require.NoError(t, err)
	assert.Equal(t, "child,kept", string(out))
}

func TestApplyToExplicitEnv(t *testing.T) {
	e := FromMap(map[string]string{"A": "1"})
	cmd := exec.Command("true")
	cmd.Env = []string{"PATH=/usr/bin:/bin"}
	e.ApplyTo(cmd)

	assert.Equal(t, []string{"PATH=/usr/bin:/bin", "A=1"}, cmd.Env)
}
