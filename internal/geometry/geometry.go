// Package geometry holds the pixel-space primitives used for grounding
// benchmarks: axis-aligned boxes, points, and the 0-1000 coordinate
// normalization that vision-language models report in.
package geometry

import "math"

// NormalizedScale is the upper bound of the coordinate range models
// report bounding boxes in, independent of image resolution.
const NormalizedScale = 1000.0

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Box is an axis-aligned rectangle in pixel space.
type Box struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// BoxFromSize builds a box from its top-left corner and size.
func BoxFromSize(x, y, width, height int) Box {
	return Box{XMin: x, YMin: y, XMax: x + width, YMax: y + height}
}

// Width returns XMax - XMin.
func (b Box) Width() int { return b.XMax - b.XMin }

// Height returns YMax - YMin.
func (b Box) Height() int { return b.YMax - b.YMin }

// Area returns the signed area. Inverted boxes give a non-positive value.
func (b Box) Area() int {
	return b.Width() * b.Height()
}

// Empty reports whether the box is the zero box.
func (b Box) Empty() bool {
	return b == Box{}
}

// Center returns the midpoint of the box, rounded down. Parts may sit
// partly off-screen, so negative sums floor rather than truncate.
func (b Box) Center() Point {
	return Point{X: floorHalf(b.XMin + b.XMax), Y: floorHalf(b.YMin + b.YMax)}
}

func floorHalf(n int) int {
	return n >> 1
}

// Slice returns the box as [x_min, y_min, x_max, y_max].
func (b Box) Slice() []int {
	return []int{b.XMin, b.YMin, b.XMax, b.YMax}
}

// Intersection returns the overlapping area of two boxes. Non-overlapping
// boxes yield 0.
func Intersection(a, b Box) int {
	w := max(0, min(a.XMax, b.XMax)-max(a.XMin, b.XMin))
	h := max(0, min(a.YMax, b.YMax)-max(a.YMin, b.YMin))
	return w * h
}

// IoU returns the intersection-over-union of two boxes in [0, 1].
// When the union has no area (both boxes degenerate) the result is 0.
func IoU(a, b Box) float64 {
	inter := Intersection(a, b)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Hypot(dx, dy)
}

// Denormalize maps a coordinate on the 0-1000 scale to pixels for an axis
// of length dim. The result is truncated with floor, never rounded.
func Denormalize(n float64, dim int) int {
	return int(math.Floor(n / NormalizedScale * float64(dim)))
}

// DenormalizeBox maps [x_min, y_min, x_max, y_max] on the 0-1000 scale to a
// pixel box, using width for x coordinates and height for y coordinates.
func DenormalizeBox(coords [4]float64, width, height int) Box {
	return Box{
		XMin: Denormalize(coords[0], width),
		YMin: Denormalize(coords[1], height),
		XMax: Denormalize(coords[2], width),
		YMax: Denormalize(coords[3], height),
	}
}
