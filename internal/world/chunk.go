package world

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/everforgeworks/galaxyserver/internal/obslog"
)

// ChunkKind distinguishes a system chunk (physics) from the two
// navigational map chunks (spec.md §4.1).
type ChunkKind int

const (
	ChunkSystem ChunkKind = iota
	ChunkGalaxyStarmap
	ChunkIntergalacticMap
)

// MapPoint is a navigational point in a map chunk (§6 *.sa2map JSON).
type MapPoint struct {
	ID   uint64  `json:"id"`
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Audience is notified of a chunk's per-tick object-stream datagram.
// Sessions implement this; world never imports the network package.
type Audience interface {
	SendDatagram(frame []byte)
}

// Chunk owns one galaxy/system region's object set and integrates its
// physics each tick (C3). Construct/add/remove/lookup/tick/serialize
// match spec.md §4.1's operation list.
type Chunk struct {
	mu sync.Mutex

	Galaxy, System int
	Path           string
	Kind           ChunkKind

	objects   []Entity
	byID      map[uint64]Entity
	seq       uint16
	points    []MapPoint // map-chunk only
	observers []Audience
}

// NewChunk constructs an empty system or map chunk.
func NewChunk(galaxy, system int, path string, kind ChunkKind) *Chunk {
	return &Chunk{
		Galaxy: galaxy, System: system, Path: path, Kind: kind,
		byID: make(map[uint64]Entity),
	}
}

// Add registers obj with the chunk.
func (c *Chunk) Add(obj Entity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects = append(c.objects, obj)
	c.byID[obj.ObjectID()] = obj
}

// Remove drops obj (by id) from the chunk.
func (c *Chunk) Remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
	for i, o := range c.objects {
		if o.ObjectID() == id {
			c.objects = append(c.objects[:i], c.objects[i+1:]...)
			break
		}
	}
}

// Lookup finds an object by id.
func (c *Chunk) Lookup(id uint64) (Entity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byID[id]
	return e, ok
}

// Objects returns a snapshot slice of every object currently owned.
func (c *Chunk) Objects() []Entity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entity, len(c.objects))
	copy(out, c.objects)
	return out
}

// AddPoint appends a navigational point to a map chunk's point list
// (spec.md §6 *.sa2map JSON); a no-op shape for system chunks, which
// carry none.
func (c *Chunk) AddPoint(p MapPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points, p)
}

// Points returns a snapshot of this chunk's navigational points.
func (c *Chunk) Points() []MapPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MapPoint, len(c.points))
	copy(out, c.points)
	return out
}

// AddObserver registers a session to receive this chunk's per-tick
// datagrams.
func (c *Chunk) AddObserver(a Audience) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, a)
}

func (c *Chunk) RemoveObserver(a Audience) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, o := range c.observers {
		if o == a {
			c.observers = append(c.observers[:i], c.observers[i+1:]...)
			break
		}
	}
}

func isMassive(e Entity) bool {
	if e.Kind() == KindSun {
		return true
	}
	if p, ok := e.(*Planet); ok && !p.IsMoon {
		return true
	}
	return false
}

// gravityState accumulates one tick's worth of pairwise-gravity results
// before any object is mutated, so the order objects are visited in
// never affects the result.
type gravityState struct {
	accel           map[uint64]Vec2
	strongestForce  map[uint64]float64
	strongestSource map[uint64]Entity
	region          map[uint64]Region
}

// Tick runs one physics pass (spec.md §4.1). dt is simulated seconds
// (catalog.Tuning.SimSecPerTick()).
func (c *Chunk) Tick(dt float64) {
	if c.Kind != ChunkSystem {
		return // map chunks carry no physics
	}
	c.mu.Lock()
	objs := make([]Entity, len(c.objects))
	copy(objs, c.objects)
	c.mu.Unlock()

	var physicsObjs, asteroids, others []Entity
	for _, o := range objs {
		if o.Mass() <= 0 {
			continue
		}
		if o.Kind() == KindAsteroid {
			asteroids = append(asteroids, o)
		} else {
			physicsObjs = append(physicsObjs, o)
		}
	}
	others = physicsObjs

	gs := &gravityState{
		accel:           make(map[uint64]Vec2, len(physicsObjs)),
		strongestForce:  make(map[uint64]float64),
		strongestSource: make(map[uint64]Entity),
		region:          make(map[uint64]Region),
	}

	// Step 2: non-asteroid pairwise gravity.
	for i := 0; i < len(others); i++ {
		for j := i + 1; j < len(others); j++ {
			c.pairwiseGravity(others[i], others[j], gs)
		}
	}

	// Apply region classification + strongest-puller bookkeeping.
	for id, force := range gs.strongestForce {
		if e, ok := c.lookupUnlocked(objs, id); ok {
			if vl, ok := e.(VesselLike); ok {
				if src, ok := gs.strongestSource[id]; ok {
					vl.NoteGravitySource(src.ObjectID(), force)
				}
				if r, ok := gs.region[id]; ok {
					vl.SetRegion(r)
				}
			}
		}
	}

	view := &chunkView{c: c}

	// Step 3: integrate non-asteroids (vessels run their full per-tick
	// update inside Tick; planets/suns/jettisoned integrate directly).
	for _, o := range others {
		ambient := c.ambientTemperature(o)
		ctx := &TickContext{DT: dt, Accel: gs.accel[o.ObjectID()], Ambient: ambient, View: view}
		o.Tick(ctx)
	}

	// Step 4: asteroid vectorized pass (massive bodies only).
	massives := make([]Entity, 0, len(others))
	for _, o := range others {
		if isMassive(o) {
			massives = append(massives, o)
		}
	}
	for _, a := range asteroids {
		accel := c.asteroidAccel(a, massives)
		ambient := c.ambientTemperature(a)
		a.Tick(&TickContext{DT: dt, Accel: accel, Ambient: ambient, View: view})
	}

	// Step 7: emit the object-stream datagram.
	c.emitObjectStream(objs)
}

func (c *Chunk) lookupUnlocked(objs []Entity, id uint64) (Entity, bool) {
	for _, o := range objs {
		if o.ObjectID() == id {
			return o, true
		}
	}
	return nil, false
}

// pairwiseGravity implements spec.md §4.1 step 2 for one unordered pair.
func (c *Chunk) pairwiseGravity(a, b Entity, gs *gravityState) {
	sep := b.Pos().Sub(a.Pos())
	rawDist := sep.Len()
	maxR := math.Max(a.Radius(), b.Radius())

	if aP, ok := a.(*Planet); ok && aP.ParentID != 0 {
		// A parent-orbited planet is never mutated by pairwise gravity,
		// but it may still classify the other side's region below.
	}
	effDist := math.Max(0, rawDist-(a.Radius()+b.Radius())) + 0.8*maxR

	if rawDist >= 1.15*maxR {
		forceMag := GravitationalConstant * a.Mass() * b.Mass() / (effDist * effDist)
		dir := sep.Normalized()
		if !skipGravityFor(a) {
			gs.accel[a.ObjectID()] = gs.accel[a.ObjectID()].Add(dir.Scale(forceMag / a.Mass()))
		}
		if !skipGravityFor(b) {
			gs.accel[b.ObjectID()] = gs.accel[b.ObjectID()].Add(dir.Scale(-forceMag / b.Mass()))
		}
		trackStrongest(gs, a, b, forceMag)
		trackStrongest(gs, b, a, forceMag)
	}

	if a.Kind() == KindVessel {
		if p, ok := b.(*Planet); ok {
			classifyRegion(gs, a, p, rawDist)
		}
	}
	if b.Kind() == KindVessel {
		if p, ok := a.(*Planet); ok {
			classifyRegion(gs, b, p, rawDist)
		}
	}
}

func skipGravityFor(e Entity) bool {
	if p, ok := e.(*Planet); ok {
		return p.ParentID != 0
	}
	return false
}

func trackStrongest(gs *gravityState, of, source Entity, force float64) {
	if force > gs.strongestForce[of.ObjectID()] {
		gs.strongestForce[of.ObjectID()] = force
		gs.strongestSource[of.ObjectID()] = source
	}
}

func classifyRegion(gs *gravityState, vessel Entity, planet *Planet, dist float64) {
	table := DefaultRegionTable(planet.RadiusKm, planet.AtmosphereKm)
	gs.region[vessel.ObjectID()] = ClassifyRange(table, dist)
}

// asteroidSofteningKm is the fixed softening used by the vectorized
// asteroid pass (spec.md §4.1 step 4), distinct from the per-pair
// 0.8*max(r) softening used for non-asteroids.
const asteroidSofteningKm = 500.0

func (c *Chunk) asteroidAccel(a Entity, massives []Entity) Vec2 {
	var accel Vec2
	for _, m := range massives {
		sep := m.Pos().Sub(a.Pos())
		dist := sep.Len() + asteroidSofteningKm
		forceMag := GravitationalConstant * m.Mass() * a.Mass() / (dist * dist)
		accel = accel.Add(sep.Normalized().Scale(forceMag / a.Mass()))
	}
	return accel
}

// ambientTemperature implements spec.md §4.1 step 5's space-temperature
// term. A vessel inside its home body's atmosphere blends this against
// the body's surface temperature itself, once it has resolved the body
// in its own Tick (see vessel.Vessel.resolveAmbientTempC).
func (c *Chunk) ambientTemperature(o Entity) float64 {
	distMkm := o.Pos().Len() / 1e6
	if distMkm < 1 {
		distMkm = 1
	}
	return 2.7 + 3300.0/math.Sqrt(distMkm)
}

func (c *Chunk) emitObjectStream(objs []Entity) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	observers := make([]Audience, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	buf := make([]byte, 0, 5+len(objs)*32)
	buf = append(buf, 0x01) // opcode: object stream
	buf = binary.LittleEndian.AppendUint16(buf, seq)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(objs)))
	for _, o := range objs {
		f := o.StreamFrame()
		buf = binary.LittleEndian.AppendUint64(buf, f.ID)
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f.X))
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f.Y))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f.VX))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f.VY))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f.Rotation))
	}

	for _, a := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					obslog.Log.Warn().Interface("panic", r).Msg("object-stream send failed, dropping")
				}
			}()
			a.SendDatagram(buf)
		}()
	}
}

// chunkView implements ChunkView for this chunk's Tick pass.
type chunkView struct{ c *Chunk }

func (v *chunkView) Lookup(id uint64) (Entity, bool) { return v.c.Lookup(id) }

func (v *chunkView) SpawnJettisoned(pos, vel Vec2, mass, radius float64, stage int) uint64 {
	id := v.c.nextLocalID()
	jc := &JettisonedComponent{
		Body: Body{ID: id, Position: pos, Velocity: vel, MassKg: mass, RadiusKm: radius},
		Stage: stage, LifetimeSec: 120,
	}
	v.c.Add(jc)
	return id
}

func (v *chunkView) PlanetsInRange(pos Vec2, rangeKm float64) []*Planet {
	var out []*Planet
	for _, o := range v.c.Objects() {
		if p, ok := o.(*Planet); ok && p.Pos().Sub(pos).Len() <= rangeKm {
			out = append(out, p)
		}
	}
	return out
}

func (v *chunkView) NonMoonPlanets() []*Planet {
	var out []*Planet
	for _, o := range v.c.Objects() {
		if p, ok := o.(*Planet); ok && !p.IsMoon {
			out = append(out, p)
		}
	}
	return out
}

func (v *chunkView) ScaleKmPerUnit() float64 { return ScaleSystem }

// nextLocalID is a fallback id source for objects spawned purely inside
// a chunk tick (jettisoned parts); the chunk manager's global Sequence
// is used for everything created through a client-facing operation.
func (c *Chunk) nextLocalID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	max := uint64(0)
	for id := range c.byID {
		if id > max {
			max = id
		}
	}
	return max + 1
}
