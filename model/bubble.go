// Package model holds the leaf data types of the bubble simulator: the
// Bubble entity, the Population collection, and planar geometry.
package model

import "math"

// UnitDiameter is the diameter of a bubble of unit volume under the
// spherical law V = pi/6 * d^3, i.e. (6/pi)^(1/3).
var UnitDiameter = math.Cbrt(6 / math.Pi)

// DiameterForVolume returns the diameter of a spherical bubble of volume v.
func DiameterForVolume(v float64) float64 {
	return math.Cbrt(6 * v / math.Pi)
}

// VolumeForDiameter returns the volume of a spherical bubble of diameter d.
func VolumeForDiameter(d float64) float64 {
	return math.Pi / 6 * d * d * d
}

// Bubble is a single gas inclusion on the plane.
//
// Volume and Diameter are kept mutually consistent under the spherical law;
// mutate them through SetVolume, never directly. Age counts completed steps
// since creation and only ever increases. Lifetime is fixed at creation; a
// bubble bursts on the step its age would reach Lifetime, so a live bubble
// always has Age < Lifetime. A Lifetime of +Inf means the bubble never
// bursts by age.
type Bubble struct {
	Age      int
	Diameter float64
	Volume   float64
	Position Vec2
	Lifetime float64
}

// NewBubble creates an age-zero bubble of the given volume at pos.
func NewBubble(volume float64, pos Vec2, lifetime float64) *Bubble {
	b := &Bubble{Position: pos, Lifetime: lifetime}
	b.SetVolume(volume)
	return b
}

// SetVolume updates the bubble volume and recomputes the diameter so the two
// stay consistent.
func (b *Bubble) SetVolume(v float64) {
	b.Volume = v
	b.Diameter = DiameterForVolume(v)
}

// Clone returns an independent copy of the bubble.
func (b *Bubble) Clone() *Bubble {
	c := *b
	return &c
}
