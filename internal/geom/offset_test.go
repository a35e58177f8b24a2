package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelativeOffset_Equality(t *testing.T) {
	a := Offset(2, 3)
	b := RelativeOffset{X: 2, Y: 3, Z: 0}

	assert.Equal(t, a, b)
	assert.True(t, a == b)

	set := map[RelativeOffset]int{a: 1}
	set[b] = 2
	assert.Len(t, set, 1)
	assert.Equal(t, 2, set[a])
}

func TestRelativeOffset_Translate(t *testing.T) {
	origin := Point{X: 10, Y: 64, Z: -5}

	tests := []struct {
		name   string
		offset RelativeOffset
		orient Orientation
		want   Point
	}{
		{"east", Offset(2, 1), Orientation{1, 0}, Point{12, 65, -5}},
		{"west", Offset(2, 1), Orientation{-1, 0}, Point{8, 65, -5}},
		{"south", Offset(2, 1), Orientation{0, 1}, Point{10, 65, -3}},
		{"north", Offset(2, 1), Orientation{0, -1}, Point{10, 65, -7}},
		{"depth east", RelativeOffset{X: 0, Y: 0, Z: 1}, Orientation{1, 0}, Point{10, 64, -6}},
		{"depth south", RelativeOffset{X: 0, Y: 0, Z: 1}, Orientation{0, 1}, Point{11, 64, -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.offset.Translate(origin, tt.orient.AxisX, tt.orient.AxisZ)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrientations_AreDistinct(t *testing.T) {
	seen := make(map[Orientation]bool)
	for _, o := range Orientations {
		assert.False(t, seen[o], "duplicate orientation %v", o)
		seen[o] = true
		assert.Equal(t, 1, abs(o.AxisX)+abs(o.AxisZ))
	}
	assert.Len(t, seen, 4)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
