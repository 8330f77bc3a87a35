package model

import (
	"fmt"
	"math"
	"strings"
)

// Vec2 is a position on the simulation plane.
type Vec2 struct {
	X, Y float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// BoundaryPolicy describes what happens to a position that would leave the
// domain during transport.
type BoundaryPolicy int

const (
	// Reflecting bounces positions off the domain edges.
	Reflecting BoundaryPolicy = iota
	// Periodic wraps positions around to the opposite edge.
	Periodic
)

// String returns the configuration name of the policy.
func (p BoundaryPolicy) String() string {
	switch p {
	case Periodic:
		return "periodic"
	default:
		return "reflecting"
	}
}

// ParseBoundaryPolicy maps a configuration string onto a BoundaryPolicy.
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(s) {
	case "reflecting", "":
		return Reflecting, nil
	case "periodic":
		return Periodic, nil
	default:
		return Reflecting, fmt.Errorf("unknown boundary policy: %q", s)
	}
}

// Domain is the square [0, Width) x [0, Width) region bubbles live on.
type Domain struct {
	Width    float64
	Boundary BoundaryPolicy
}

// Area returns the surface area of the domain.
func (d Domain) Area() float64 {
	return d.Width * d.Width
}

// Contains reports whether v lies inside the domain.
func (d Domain) Contains(v Vec2) bool {
	return v.X >= 0 && v.X <= d.Width && v.Y >= 0 && v.Y <= d.Width
}

// Clamp maps an arbitrary position back into the domain according to the
// boundary policy. Reflecting folds the position across the nearest edge
// (triangle wave of period 2*Width); Periodic wraps modulo Width.
func (d Domain) Clamp(v Vec2) Vec2 {
	return Vec2{X: d.clampAxis(v.X), Y: d.clampAxis(v.Y)}
}

func (d Domain) clampAxis(x float64) float64 {
	w := d.Width
	if w <= 0 {
		return 0
	}
	switch d.Boundary {
	case Periodic:
		x = math.Mod(x, w)
		if x < 0 {
			x += w
		}
		return x
	default:
		x = math.Mod(x, 2*w)
		if x < 0 {
			x += 2 * w
		}
		if x > w {
			x = 2*w - x
		}
		return x
	}
}
