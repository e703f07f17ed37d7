package world

import "math"

// Body is the shared state of every celestial body (spec.md §3).
type Body struct {
	ID       uint64
	Name     string
	Position Vec2
	Velocity Vec2
	MassKg   float64
	RadiusKm float64
	RotDeg   float64
	SpinDegPerSec float64

	AtmosphereKm     float64 // 0 = airless
	SurfaceTempC     *float64
	ResourceYield    map[string]float64 // resource id -> relative weight
	IsGasGiant       bool
	IsMoon           bool

	// VacuumDescentDamperSec is stored and persisted with the body; the
	// vessel landing math does not read it and uses a fixed 12s vacuum
	// damper instead (see DESIGN.md).
	VacuumDescentDamperSec float64

	// ParentID, when non-zero, puts this body on an analytic circular
	// orbit: position/velocity are snapped to the orbit solution every
	// tick instead of being integrated by gravity (spec.md §3).
	ParentID    uint64
	OrbitRadius float64
}

func (b *Body) ObjectID() uint64  { return b.ID }
func (b *Body) Pos() Vec2         { return b.Position }
func (b *Body) SetPos(v Vec2)     { b.Position = v }
func (b *Body) Vel() Vec2         { return b.Velocity }
func (b *Body) SetVel(v Vec2)     { b.Velocity = v }
func (b *Body) Mass() float64     { return b.MassKg }
func (b *Body) Radius() float64   { return b.RadiusKm }

// AtmosphereHeightKm, RotationDeg, and SurfaceGravityKmS2 let a vessel
// resolve its home body's landing/thermal parameters through the
// BodyInfo interface without either package importing the other's
// concrete types beyond what Entity already exposes.
func (b *Body) AtmosphereHeightKm() float64 { return b.AtmosphereKm }
func (b *Body) RotationDeg() float64        { return b.RotDeg }

func (b *Body) SurfaceGravityKmS2() float64 {
	if b.RadiusKm <= 0 {
		return 0
	}
	return GravitationalConstant * b.MassKg / (b.RadiusKm * b.RadiusKm)
}

// SurfaceTemperatureC reports the body's authored surface temperature in
// Celsius, if one was set; ok is false for a body with no authored
// surface temperature (e.g. a gas giant with no solid surface).
func (b *Body) SurfaceTemperatureC() (tempC float64, ok bool) {
	if b.SurfaceTempC == nil {
		return 0, false
	}
	return *b.SurfaceTempC, true
}

func (b *Body) StreamFrame() ObjectFrame {
	return ObjectFrame{
		ID: b.ID, X: b.Position.X, Y: b.Position.Y,
		VX: float32(b.Velocity.X), VY: float32(b.Velocity.Y),
		Rotation: float32(b.RotDeg),
	}
}

// Sun is a free (non-orbited) massive body integrated by gravity.
type Sun struct{ Body }

func (s *Sun) Kind() Kind { return KindSun }

func (s *Sun) Tick(ctx *TickContext) {
	s.RotDeg += s.SpinDegPerSec * ctx.DT
	integrateSemiImplicit(&s.Body, ctx)
}

// Planet may be a free body or, when ParentID != 0, analytically orbited.
type Planet struct{ Body }

func (p *Planet) Kind() Kind { return KindPlanet }

func (p *Planet) Tick(ctx *TickContext) {
	p.RotDeg += p.SpinDegPerSec * ctx.DT
	if p.ParentID == 0 {
		integrateSemiImplicit(&p.Body, ctx)
		return
	}
	// Analytic circular orbit: gravity never mutates this body
	// (spec.md §3, §4.1 step 2's "never mutated by pairwise gravity").
	parent, ok := ctx.View.Lookup(p.ParentID)
	if !ok {
		integrateSemiImplicit(&p.Body, ctx)
		return
	}
	snapCircularOrbit(&p.Body, parent, ctx.DT)
}

// snapCircularOrbit re-derives position/velocity for a stable circular
// orbit of radius p.OrbitRadius around parent, advancing phase by the
// orbital angular velocity this tick.
func snapCircularOrbit(p *Body, parent Physics, dt float64) {
	rel := p.Position.Sub(parent.Pos())
	r := rel.Len()
	if r == 0 {
		r = p.OrbitRadius
		rel = Vec2{X: r}
	}
	omega := math.Sqrt(GravitationalConstant * parent.Mass() / math.Pow(p.OrbitRadius, 3))
	theta := rel.Bearing()*math.Pi/180 + omega*dt
	newRel := Vec2{X: p.OrbitRadius * math.Cos(theta), Y: p.OrbitRadius * math.Sin(theta)}
	tangent := Vec2{X: -math.Sin(theta), Y: math.Cos(theta)}
	speed := omega * p.OrbitRadius
	p.Position = parent.Pos().Add(newRel)
	p.Velocity = parent.Vel().Add(tangent.Scale(speed))
}

// Asteroid is a low-mass body that feels gravity only from massive
// bodies (spec.md §4.1 step 4) via the vectorized pass.
type Asteroid struct{ Body }

func (a *Asteroid) Kind() Kind { return KindAsteroid }

func (a *Asteroid) Tick(ctx *TickContext) {
	integrateSemiImplicit(&a.Body, ctx)
}

// JettisonedComponent is a short-lived physical object spawned by
// staging (spec.md glossary). Expired reports whether LifetimeSec has
// elapsed; the chunk tick does not remove expired components.
type JettisonedComponent struct {
	Body
	Stage       int
	LifetimeSec float64
	ageSec      float64
}

func (j *JettisonedComponent) Kind() Kind { return KindJettisoned }

func (j *JettisonedComponent) Expired() bool { return j.ageSec >= j.LifetimeSec }

func (j *JettisonedComponent) Tick(ctx *TickContext) {
	j.ageSec += ctx.DT
	integrateSemiImplicit(&j.Body, ctx)
}

// GravitationalConstant in km^3 kg^-1 s^-2 (6.674e-11 m^3 kg^-1 s^-2
// converted to km^3).
const GravitationalConstant = 6.674e-20

// MaxAccelKmPerS2 is the per-tick acceleration clamp from spec.md §4.1
// step 3 (and the asteroid pass, step 4).
const MaxAccelKmPerS2 = 1000.0

func integrateSemiImplicit(b *Body, ctx *TickContext) {
	a := ctx.Accel
	if l := a.Len(); l > MaxAccelKmPerS2 {
		a = a.Normalized().Scale(MaxAccelKmPerS2)
	}
	b.Velocity = b.Velocity.Add(a.Scale(ctx.DT))
	b.Position = b.Position.Add(b.Velocity.Scale(ctx.DT))
}
