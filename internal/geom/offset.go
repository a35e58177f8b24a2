// Package geom holds the integer coordinate types shared by gate templates and
// the worlds they are matched against.
package geom

import "fmt"

// RelativeOffset is a position inside a gate diagram. X is the column, Y the
// row and Z the depth along the gate's normal (always 0 for diagram cells).
// It is a comparable value and can be used as a map key.
type RelativeOffset struct {
	X int
	Y int
	Z int
}

// Point is an absolute world coordinate.
type Point struct {
	X int
	Y int
	Z int
}

// Orientation is a pair of horizontal direction multipliers.
type Orientation struct {
	AxisX int
	AxisZ int
}

// Orientations lists the four compass rotations a diagram can be matched in.
var Orientations = []Orientation{
	{AxisX: 1, AxisZ: 0},
	{AxisX: -1, AxisZ: 0},
	{AxisX: 0, AxisZ: 1},
	{AxisX: 0, AxisZ: -1},
}

// Offset builds a diagram offset for the given column and row.
func Offset(col, row int) RelativeOffset {
	return RelativeOffset{X: col, Y: row}
}

// Translate maps the offset into world space. The column runs along
// (axisX, axisZ), the row maps to the vertical axis and Z runs along the
// horizontal normal (axisZ, -axisX).
func (o RelativeOffset) Translate(origin Point, axisX, axisZ int) Point {
	return Point{
		X: origin.X + o.X*axisX + o.Z*axisZ,
		Y: origin.Y + o.Y,
		Z: origin.Z + o.X*axisZ - o.Z*axisX,
	}
}

func (o RelativeOffset) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.X, o.Y, o.Z)
}

// Add returns the component-wise sum of p and d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

func (p Point) String() string {
	return fmt.Sprintf("%d,%d,%d", p.X, p.Y, p.Z)
}
