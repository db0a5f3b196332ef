package topocache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anneal-bench/anneal-bench/spinglass/topology"
)

type countingProvider struct {
	hw    *topology.Hardware
	calls int
}

func (p *countingProvider) Topology(context.Context, string) (*topology.Hardware, error) {
	p.calls++
	return p.hw, nil
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *countingProvider) {
	t.Helper()
	hw, err := topology.Synthesize("Advantage_system4.1", topology.FamilyPegasus, []int{4}, topology.Defects{Qubits: 0.02, Couplers: 0.02}, 3)
	require.NoError(t, err)
	next := &countingProvider{hw: hw}
	c, err := Open(filepath.Join(t.TempDir(), "cache", "topologies.db"), next, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, next
}

func TestCache_ServesFreshEntries(t *testing.T) {
	c, next := newTestCache(t, time.Hour)
	ctx := context.Background()

	first, err := c.Topology(ctx, "Advantage_system4.1")
	require.NoError(t, err)
	second, err := c.Topology(ctx, "Advantage_system4.1")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first.Graph.Edges(), second.Graph.Edges())
	assert.Equal(t, first.Graph.Nodes(), second.Graph.Nodes())
	assert.Equal(t, first.Shape, second.Shape)
	assert.Equal(t, first.NumQubits, second.NumQubits)
	assert.Equal(t, topology.FamilyPegasus, second.Family)
}

func TestCache_RefetchesExpiredEntries(t *testing.T) {
	c, next := newTestCache(t, time.Minute)
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err := c.Topology(ctx, "Advantage_system4.1")
	require.NoError(t, err)
	now = now.Add(2 * time.Minute)
	_, err = c.Topology(ctx, "Advantage_system4.1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCache_Purge(t *testing.T) {
	c, next := newTestCache(t, time.Hour)
	ctx := context.Background()

	_, err := c.Topology(ctx, "Advantage_system4.1")
	require.NoError(t, err)
	require.NoError(t, c.Purge(ctx))
	_, err = c.Topology(ctx, "Advantage_system4.1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}
