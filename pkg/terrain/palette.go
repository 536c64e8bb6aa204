package terrain

import (
	"fmt"
	"io"
)

// ReadPalette reads a raw 256-entry RGB table, three bytes per color, alpha
// left at zero. When terrain configs are given the original engine's palette
// preparation runs first: entry 0 is cleared, the first color of every
// terrain range is halved, and entries 224..239 become a 16-step grayscale
// ramp. Every channel is then scaled up by two bits regardless, matching the
// engine's screen palette setup.
func ReadPalette(r io.Reader, terrains []TerrainConfig) ([0x100][4]uint8, error) {
	var palette [0x100][4]uint8
	var rgb [3]byte
	for i := range palette {
		if _, err := io.ReadFull(r, rgb[:]); err != nil {
			return palette, fmt.Errorf("palette entry %d: %w", i, err)
		}
		copy(palette[i][:3], rgb[:])
	}

	if terrains != nil {
		palette[0] = [4]uint8{}

		for _, tc := range terrains {
			for c := 0; c < 3; c++ {
				palette[tc.Colors.Start][c] >>= 1
			}
		}

		for i := 0; i < 16; i++ {
			v := uint8(i * 4)
			palette[224+i] = [4]uint8{v, v, v, 0}
		}
	}

	for i := range palette {
		palette[i][0] <<= 2
		palette[i][1] <<= 2
		palette[i][2] <<= 2
	}
	return palette, nil
}
