package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLevel() *Level {
	level := Level{
		Size:     [2]int32{2, 1},
		FloodMap: []uint32{0},
		Height:   []uint8{0, 0},
		Meta:     []uint8{0, 0},
	}
	for i := range level.Palette {
		level.Palette[i] = [4]uint8{0xFF, 0xFF, 0xFF, 0xFF}
	}
	for i := range level.Terrains {
		level.Terrains[i] = TerrainConfig{Colors: ColorRange{Start: 0, End: 1}}
	}
	return &level
}

func TestAtWraps(t *testing.T) {
	level := &Level{
		Size:   [2]int32{4, 2},
		Height: []uint8{0, 1, 2, 3, 4, 5, 6, 7},
		Meta:   make([]uint8, 8),
	}

	for _, coord := range [][2]int32{
		{0, 0}, {3, 1}, {1, 0}, {2, 1},
	} {
		x, y := coord[0], coord[1]
		want := level.At(x, y)
		assert.Equal(t, want, level.At(x+4, y), "periodic in x")
		assert.Equal(t, want, level.At(x, y+2), "periodic in y")
		assert.Equal(t, want, level.At(x-4*5, y-2*7), "wraps negatives")
	}

	texel := level.At(-3, -1)
	assert.Equal(t, Single(Point{Altitude: 5, Terrain: 0}), texel)
}

func TestAtDualDelta(t *testing.T) {
	level := &Level{
		Size:   [2]int32{2, 1},
		Height: []uint8{10, 50},
		Meta: []uint8{
			DOUBLE_LEVEL | 0x01, // low half, delta bits 01
			DOUBLE_LEVEL | 0x02, // high half, delta bits 10
		},
	}

	for x := int32(0); x < 2; x++ {
		texel := level.At(x, 0)
		dual, ok := texel.(Dual)
		assert.True(t, ok)
		assert.Equal(t, Point{Altitude: 10, Terrain: 0}, dual.Low)
		assert.Equal(t, Point{Altitude: 50, Terrain: 0}, dual.High)
		assert.Equal(t, uint8(1<<5|2<<3), dual.Delta)
		assert.Equal(t, uint8(0x30), dual.Delta)
		assert.Equal(t, uint8(50), texel.Top())
	}
}

func TestAtTerrainType(t *testing.T) {
	level := &Level{
		Size:   [2]int32{2, 1},
		Height: []uint8{7, 0},
		Meta:   []uint8{5 << TERRAIN_SHIFT, 0},
	}
	assert.Equal(t, Single(Point{Altitude: 7, Terrain: 5}), level.At(0, 0))
}

func TestExportFlatLevel(t *testing.T) {
	level := testLevel()
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, level.Export())
}

func TestExportDual(t *testing.T) {
	level := &Level{
		Size:   [2]int32{2, 1},
		Height: []uint8{10, 50},
		Meta: []uint8{
			DOUBLE_LEVEL | 2<<TERRAIN_SHIFT | 0x01,
			DOUBLE_LEVEL | 3<<TERRAIN_SHIFT | 0x02,
		},
	}
	assert.Equal(t, []byte{
		10, 50, 0x30, 2 | 3<<4,
		10, 50, 0x30, 2 | 3<<4,
	}, level.Export())
}
