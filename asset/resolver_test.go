package asset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forge-engine/forge/id"
)

func TestResolverAddAndResolve(t *testing.T) {
	r := NewResolver()
	u := id.Generate()
	r.Add("models/a.mesh", u)

	got, ok := r.ResolvePath("models/a.mesh")
	require.True(t, ok)
	require.Equal(t, u, got)

	path, ok := r.ResolveUUID(u)
	require.True(t, ok)
	require.Equal(t, "models/a.mesh", path)
}

func TestResolverRemoveIsForwardOnly(t *testing.T) {
	r := NewResolver()
	u := id.Generate()
	r.Add("models/a.mesh", u)
	r.Remove("models/a.mesh")

	_, ok := r.ResolvePath("models/a.mesh")
	require.False(t, ok)

	path, ok := r.ResolveUUID(u)
	require.True(t, ok)
	require.Equal(t, "models/a.mesh", path)
}

func TestResolverLatestAddWins(t *testing.T) {
	r := NewResolver()
	u1, u2 := id.Generate(), id.Generate()
	r.Add("models/a.mesh", u1)
	r.Add("models/a.mesh", u2)

	got, ok := r.ResolvePath("models/a.mesh")
	require.True(t, ok)
	require.Equal(t, u2, got)
}
