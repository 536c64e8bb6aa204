package terrain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPalettePlain(t *testing.T) {
	raw := bytes.Repeat([]byte{10, 20, 30}, 0x100)

	palette, err := ReadPalette(bytes.NewReader(raw), nil)
	require.NoError(t, err)

	for i := range palette {
		assert.Equal(t, [4]uint8{40, 80, 120, 0}, palette[i])
	}
}

func TestReadPaletteCorrections(t *testing.T) {
	raw := bytes.Repeat([]byte{10, 20, 30}, 0x100)

	terrains := make([]TerrainConfig, NUM_TERRAINS)
	for i := range terrains {
		terrains[i] = TerrainConfig{
			Colors: ColorRange{Start: uint8(16 + i), End: uint8(17 + i)},
		}
	}

	palette, err := ReadPalette(bytes.NewReader(raw), terrains)
	require.NoError(t, err)

	// Entry 0 is cleared before scaling.
	assert.Equal(t, [4]uint8{0, 0, 0, 0}, palette[0])

	// The first color of every terrain range is halved, then everything
	// is shifted up two bits.
	for i := range terrains {
		assert.Equal(t, [4]uint8{5 << 2, 10 << 2, 15 << 2, 0}, palette[16+i])
	}

	// Unrelated entries only get the scaling.
	assert.Equal(t, [4]uint8{40, 80, 120, 0}, palette[1])

	// Grayscale ramp over 224..239.
	for i := 0; i < 16; i++ {
		v := uint8(i*4) << 2
		assert.Equal(t, [4]uint8{v, v, v, 0}, palette[224+i])
	}
}

func TestReadPaletteTruncated(t *testing.T) {
	_, err := ReadPalette(bytes.NewReader(make([]byte, 100)), nil)
	assert.Error(t, err)
}
