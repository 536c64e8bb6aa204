package terrain

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityTree decodes every 8 input bits to the byte they spell, which
// makes compressed fixtures trivial to write by hand.
func identityTree() []int32 {
	tree := make([]int32, 512)
	for i := 2; i < 256; i++ {
		tree[i] = int32(i)
	}
	for i := 256; i < 512; i++ {
		tree[i] = -int32(i - 256)
	}
	return tree
}

// writeTestLevel builds a 16x128 level: flood file, compressed grid and
// palette. Row y decompresses to constant height y with zero meta.
func writeTestLevel(t *testing.T, dir string) *LevelConfig {
	t.Helper()

	const (
		w = 16
		h = 128
	)

	config := &LevelConfig{
		Name:        "test",
		FloodPath:   filepath.Join(dir, "level.vpr"),
		GridPath:    filepath.Join(dir, "level.vmc"),
		PalettePath: filepath.Join(dir, "level.pal"),
		Compressed:  true,
		Size:        [2]int32{w, h},
		Geo:         4,
		Section:     128,
		Terrains:    make([]TerrainConfig, NUM_TERRAINS),
	}

	// geoPow=2, sectionPow=7: floodSize=1, netSize=128, so the flood
	// table lives at byte 332 and the file is exactly 336 bytes.
	flood := make([]byte, 336)
	binary.LittleEndian.PutUint32(flood[332:], 0xDEADBEEF)
	require.NoError(t, os.WriteFile(config.FloodPath, flood, 0644))

	var grid bytes.Buffer
	dataStart := h*6 + 2*512*4
	for y := 0; y < h; y++ {
		binary.Write(&grid, binary.LittleEndian, int32(dataStart+y*(w+w)))
		binary.Write(&grid, binary.LittleEndian, int16(w+w))
	}
	binary.Write(&grid, binary.LittleEndian, identityTree())
	binary.Write(&grid, binary.LittleEndian, identityTree())
	for y := 0; y < h; y++ {
		// Height channel: one delta byte then zeros.
		row := make([]byte, w+w)
		row[0] = byte(y)
		grid.Write(row)
	}
	require.NoError(t, os.WriteFile(config.GridPath, grid.Bytes(), 0644))

	palette := bytes.Repeat([]byte{1, 1, 1}, 0x100)
	require.NoError(t, os.WriteFile(config.PalettePath, palette, 0644))

	return config
}

func TestLoad(t *testing.T) {
	config := writeTestLevel(t, t.TempDir())

	level, err := Load(config)
	require.NoError(t, err)

	assert.Equal(t, [2]int32{16, 128}, level.Size)
	assert.Equal(t, []uint32{0xDEADBEEF}, level.FloodMap)
	require.Len(t, level.Height, 16*128)
	require.Len(t, level.Meta, 16*128)

	for y := 0; y < 128; y++ {
		for x := 0; x < 16; x++ {
			assert.Equal(t, uint8(y), level.Height[y*16+x], "height at %d,%d", x, y)
			assert.Equal(t, uint8(0), level.Meta[y*16+x], "meta at %d,%d", x, y)
		}
	}

	// Palette corrections applied: entry 0 cleared, the rest scaled.
	assert.Equal(t, [4]uint8{0, 0, 0, 0}, level.Palette[0])
	assert.Equal(t, [4]uint8{4, 4, 4, 0}, level.Palette[1])
}

func TestLoadUncompressed(t *testing.T) {
	config := writeTestLevel(t, t.TempDir())
	config.Compressed = false

	_, err := Load(config)
	assert.ErrorIs(t, err, ErrUnsupportedLayout)
}

func TestLoadFloodSizeMismatch(t *testing.T) {
	config := writeTestLevel(t, t.TempDir())
	require.NoError(t, os.WriteFile(config.FloodPath, make([]byte, 100), 0644))

	_, err := Load(config)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestLoadTruncatedGrid(t *testing.T) {
	config := writeTestLevel(t, t.TempDir())
	data, err := os.ReadFile(config.GridPath)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(config.GridPath, data[:len(data)-64], 0644))

	_, err = Load(config)
	assert.Error(t, err)
}
