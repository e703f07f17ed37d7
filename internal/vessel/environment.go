package vessel

import (
	"math"

	"github.com/everforgeworks/galaxyserver/internal/world"
)

// BodySnapshot is a read-only copy of the fields a payload behavior needs
// from a celestial body, taken once per tick so internal/payload never
// has to look up world.Entity or hold a live chunk reference (spec.md
// §4.4's income/discovery rules only ever read these fields).
type BodySnapshot struct {
	ID         uint64
	Name       string
	Position   world.Vec2
	RadiusKm   float64
	IsMoon     bool
	IsGasGiant bool
}

// bodySnapshotFrom adapts whatever concrete body type the chunk view
// returns into a BodySnapshot. Only Planet and Sun are modeled as
// celestial bodies a vessel's home/strongest-source can point at.
func bodySnapshotFrom(e world.Entity) *BodySnapshot {
	if e == nil {
		return nil
	}
	switch b := e.(type) {
	case *world.Planet:
		return &BodySnapshot{ID: b.ID, Name: b.Name, Position: b.Position, RadiusKm: b.RadiusKm, IsMoon: b.IsMoon, IsGasGiant: b.IsGasGiant}
	case *world.Sun:
		return &BodySnapshot{ID: b.ID, Name: b.Name, Position: b.Position, RadiusKm: b.RadiusKm}
	default:
		return &BodySnapshot{ID: e.ObjectID(), Position: e.Pos(), RadiusKm: e.Radius()}
	}
}

// resourceYieldFrom returns the body's resource yield weights, or nil if
// it isn't a resource-bearing planet.
func resourceYieldFrom(e world.Entity) map[string]float64 {
	if p, ok := e.(*world.Planet); ok {
		return p.ResourceYield
	}
	return nil
}

// refreshEnvironmentSnapshots updates the per-tick environment caches
// payload behaviors read from: home body, strongest gravity source, the
// system's non-moon planets (for telescope/probe visit accounting), and
// every same-system body including moons (for discovery and the
// nearest-planet networking-multiplier resolution).
func (v *Vessel) refreshEnvironmentSnapshots(view world.ChunkView) {
	if v.HomeBodyID != 0 {
		if e, ok := view.Lookup(v.HomeBodyID); ok {
			v.HomeBodySnapshot = bodySnapshotFrom(e)
			v.HomeResourceYield = resourceYieldFrom(e)
		}
	}
	if v.StrongestSourceID != 0 {
		if e, ok := view.Lookup(v.StrongestSourceID); ok {
			v.StrongestSourceSnapshot = bodySnapshotFrom(e)
		}
	}
	v.NearbyNonMoonPlanets = v.NearbyNonMoonPlanets[:0]
	for _, p := range view.NonMoonPlanets() {
		v.NearbyNonMoonPlanets = append(v.NearbyNonMoonPlanets, BodySnapshot{
			ID: p.ID, Name: p.Name, Position: p.Position, RadiusKm: p.RadiusKm, IsMoon: p.IsMoon, IsGasGiant: p.IsGasGiant,
		})
	}
	v.NearbyBodies = v.NearbyBodies[:0]
	for _, p := range view.PlanetsInRange(v.Position, math.MaxFloat64) {
		v.NearbyBodies = append(v.NearbyBodies, BodySnapshot{
			ID: p.ID, Name: p.Name, Position: p.Position, RadiusKm: p.RadiusKm, IsMoon: p.IsMoon, IsGasGiant: p.IsGasGiant,
		})
	}
}

// NearestBody returns the moon-inclusive same-system body closest to pos
// by literal distance, mirroring the source's min(planets, key=hypot)
// resolution (spec.md §4.5).
func NearestBody(bodies []BodySnapshot, pos world.Vec2) (*BodySnapshot, float64) {
	var nearest *BodySnapshot
	best := math.Inf(1)
	for i := range bodies {
		d := bodies[i].Position.Sub(pos).Len()
		if d < best {
			best = d
			nearest = &bodies[i]
		}
	}
	return nearest, best
}
