package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSaver struct {
	savedChunks int
	savedMeta   int
}

func (f *fakeSaver) SaveChunk(c *Chunk) error { f.savedChunks++; return nil }
func (f *fakeSaver) SaveMeta() error          { f.savedMeta++; return nil }

func TestManager_ChunkByCoordLazilyCreatesAndReuses(t *testing.T) {
	m := NewManager(60, 1, 60, nil)

	a := m.ChunkByCoord(1, 2, ChunkSystem)
	require.NotNil(t, a)
	b := m.ChunkByCoord(1, 2, ChunkSystem)
	assert.Same(t, a, b, "the same coordinate returns the already-loaded chunk")

	other := m.ChunkByCoord(1, 2, ChunkGalaxyStarmap)
	assert.NotSame(t, a, other, "a different kind at the same coordinate is a distinct chunk")
}

func TestManager_LoadChunkIndexesItsObjects(t *testing.T) {
	m := NewManager(60, 1, 60, nil)
	c := NewChunk(3, 4, "", ChunkSystem)
	c.Add(&Sun{Body: Body{ID: 42}})

	m.LoadChunk(c)

	found, ok := m.ChunkFor(42)
	require.True(t, ok)
	assert.Same(t, c, found)
}

func TestManager_MoveObjectRelocatesAndReindexes(t *testing.T) {
	m := NewManager(60, 1, 60, nil)
	from := NewChunk(0, 0, "", ChunkSystem)
	to := NewChunk(0, 1, "", ChunkSystem)
	m.LoadChunk(from)
	m.LoadChunk(to)

	v := &Sun{Body: Body{ID: 7}}
	from.Add(v)
	m.RegisterObject(7, 0, 0, ChunkSystem)

	m.MoveObject(7, from, to)

	_, stillInFrom := from.Lookup(7)
	assert.False(t, stillInFrom)
	_, inTo := to.Lookup(7)
	assert.True(t, inTo)

	found, ok := m.ChunkFor(7)
	require.True(t, ok)
	assert.Same(t, to, found)
}

func TestManager_ChunksReturnsSnapshotOfAllLoaded(t *testing.T) {
	m := NewManager(60, 1, 60, nil)
	m.LoadChunk(NewChunk(0, 0, "", ChunkSystem))
	m.LoadChunk(NewChunk(0, 1, "", ChunkSystem))

	assert.Len(t, m.Chunks(), 2)
}

func TestRescale_ConvertsByScaleRatio(t *testing.T) {
	pos, vel := Rescale(Vec2{X: 1e6}, Vec2{X: 10}, ScaleSystem, ScaleGalaxyStarmap)
	assert.InDelta(t, 1e6/ScaleGalaxyStarmap, pos.X, 1e-9)
	assert.InDelta(t, 10.0/ScaleGalaxyStarmap, vel.X, 1e-12)
}

func TestManager_AutosaveOncePersistsEveryLoadedChunkAndMeta(t *testing.T) {
	saver := &fakeSaver{}
	m := NewManager(60, 1, 60, saver)
	m.LoadChunk(NewChunk(0, 0, "", ChunkSystem))
	m.LoadChunk(NewChunk(0, 1, "", ChunkSystem))

	m.autosaveOnce()

	assert.Equal(t, 2, saver.savedChunks)
	assert.Equal(t, 1, saver.savedMeta)
}

func TestManager_SimSecPerTick(t *testing.T) {
	m := NewManager(60, 2, 60, nil)
	assert.InDelta(t, 2.0/60.0, m.SimSecPerTick(), 1e-12)
}
