package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_AddRemoveLookup(t *testing.T) {
	c := NewChunk(0, 0, "", ChunkSystem)
	sun := &Sun{Body: Body{ID: 1, Name: "Sol"}}
	c.Add(sun)

	got, ok := c.Lookup(1)
	require.True(t, ok)
	assert.Same(t, sun, got)
	assert.Len(t, c.Objects(), 1)

	c.Remove(1)
	_, ok = c.Lookup(1)
	assert.False(t, ok)
	assert.Empty(t, c.Objects())
}

type fakeAudience struct {
	frames [][]byte
}

func (f *fakeAudience) SendDatagram(frame []byte) { f.frames = append(f.frames, frame) }

func TestChunk_ObserverFanOutOnTick(t *testing.T) {
	c := NewChunk(0, 0, "", ChunkSystem)
	c.Add(&Sun{Body: Body{ID: 1, Name: "Sol", MassKg: 1e30, RadiusKm: 700000}})

	a := &fakeAudience{}
	c.AddObserver(a)
	c.Tick(1.0)

	require.Len(t, a.frames, 1, "one object-stream datagram per tick")
	assert.Equal(t, byte(0x01), a.frames[0][0], "object-stream opcode")
}

func TestChunk_RemoveObserverStopsFutureDeliveries(t *testing.T) {
	c := NewChunk(0, 0, "", ChunkSystem)
	c.Add(&Sun{Body: Body{ID: 1, MassKg: 1e30, RadiusKm: 700000}})

	a := &fakeAudience{}
	c.AddObserver(a)
	c.RemoveObserver(a)
	c.Tick(1.0)

	assert.Empty(t, a.frames, "a removed observer must not be delivered to")
}

func TestChunk_MapChunkTickIsNoOp(t *testing.T) {
	c := NewChunk(0, 0, "", ChunkGalaxyStarmap)
	c.Add(&Sun{Body: Body{ID: 1, Position: Vec2{X: 5}, MassKg: 1e30}})

	c.Tick(1.0)

	obj, _ := c.Lookup(1)
	assert.Equal(t, Vec2{X: 5}, obj.Pos(), "map chunks carry no physics")
}

func TestChunk_PairwiseGravityPullsTwoSunsTogether(t *testing.T) {
	c := NewChunk(0, 0, "", ChunkSystem)
	a := &Sun{Body: Body{ID: 1, Position: Vec2{X: -1e6}, MassKg: 2e30, RadiusKm: 700000}}
	b := &Sun{Body: Body{ID: 2, Position: Vec2{X: 1e6}, MassKg: 2e30, RadiusKm: 700000}}
	c.Add(a)
	c.Add(b)

	c.Tick(1.0)

	assert.Greater(t, a.Velocity.X, 0.0, "the left sun accelerates toward the right one")
	assert.Less(t, b.Velocity.X, 0.0, "the right sun accelerates toward the left one")
}

func TestChunk_AsteroidFeelsGravityFromSunButNotOtherAsteroid(t *testing.T) {
	c := NewChunk(0, 0, "", ChunkSystem)
	c.Add(&Sun{Body: Body{ID: 1, MassKg: 2e30, RadiusKm: 700000}})
	ast := &Asteroid{Body: Body{ID: 2, Position: Vec2{X: 1e7}, MassKg: 1e10, RadiusKm: 1}}
	other := &Asteroid{Body: Body{ID: 3, Position: Vec2{X: 1e7, Y: 10}, MassKg: 1e10, RadiusKm: 1}}
	c.Add(ast)
	c.Add(other)

	c.Tick(1.0)

	assert.Less(t, ast.Velocity.X, 0.0, "the asteroid is pulled toward the sun at the origin")
}

func TestChunk_ParentedPlanetIsNotMutatedByPairwiseGravityButOrbits(t *testing.T) {
	c := NewChunk(0, 0, "", ChunkSystem)
	sun := &Sun{Body: Body{ID: 1, MassKg: 2e30, RadiusKm: 700000}}
	planet := &Planet{Body: Body{
		ID: 2, Position: Vec2{X: 1.5e8}, MassKg: 5.9e24, RadiusKm: 6371,
		ParentID: 1, OrbitRadius: 1.5e8,
	}}
	c.Add(sun)
	c.Add(planet)

	before := planet.Position
	c.Tick(100.0)

	assert.NotEqual(t, before, planet.Position, "an orbited planet still advances along its analytic orbit")
	assert.InDelta(t, 1.5e8, planet.Position.Len(), 1.0, "orbit radius is preserved by the analytic solution")
}
