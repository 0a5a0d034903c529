// Package state holds the plain data carried by agents. Behavior lives in
// internal/world; these structs exist so movement and worker memory can be
// snapshotted and persisted without dragging manager references along.
package state

import "math"

// Vec2 is a continuous world-space position in pixels.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to other.
func (v Vec2) DistanceTo(other Vec2) float64 {
	return math.Hypot(other.X-v.X, other.Y-v.Y)
}

// Valid reports whether both components are finite.
func (v Vec2) Valid() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
