package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubProvider struct{ name string }

func (p stubProvider) Name() string { return p.name }

func (p stubProvider) Open(context.Context, Options) (Navigator, error) { return nil, nil }

func TestRegistryIsCaseInsensitive(t *testing.T) {
	Register(stubProvider{name: "Example.Site"})
	t.Cleanup(func() { delete(registry, "example.site") })

	p, ok := Get("EXAMPLE.site")
	require.True(t, ok)
	require.Equal(t, "Example.Site", p.Name())
	require.Contains(t, Names(), "example.site")

	_, ok = Get("missing")
	require.False(t, ok)
}
