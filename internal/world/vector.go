package world

import "math"

// Vec2 is a 2D km/km-s vector. The object-stream and vessel-stream wire
// formats (spec.md §6) carry only x/y, so the world is a 2D plane.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }

func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Bearing returns the angle of v in degrees, 0 = +X axis, CCW positive.
func (v Vec2) Bearing() float64 {
	return math.Atan2(v.Y, v.X) * 180 / math.Pi
}

// Dot is the scalar/dot product.
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// AngleDelta returns the smallest signed difference a-b in degrees,
// normalized to [-180, 180).
func AngleDelta(a, b float64) float64 {
	d := math.Mod(a-b+180, 360)
	if d < 0 {
		d += 360
	}
	return d - 180
}
