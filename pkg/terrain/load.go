package terrain

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/openvange/vango/pkg/splay"
)

var (
	// ErrUnsupportedLayout marks level sources this codec cannot read,
	// such as uncompressed grids.
	ErrUnsupportedLayout = errors.New("unsupported level layout")
	// ErrIntegrity marks a source file whose size or structure does not
	// match what the config says it should be.
	ErrIntegrity = errors.New("level file integrity mismatch")
)

// Rows are decompressed in fixed groups; groups run in parallel, each with
// its own file handle and a disjoint slice of the destination grids.
const rowGroupSize = 64

// Load decodes a complete level from its three source files. Any failure
// aborts the whole load; there is no partial Level.
func Load(config *LevelConfig) (*Level, error) {
	if !config.Compressed {
		return nil, fmt.Errorf("%s: uncompressed grid: %w", config.GridPath, ErrUnsupportedLayout)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	flood, err := readFloodMap(config)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("path", config.FloodPath).
		Dur("elapsed", time.Since(start)).
		Msg("loaded flood map")

	start = time.Now()
	height, meta, err := readGrid(config)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("path", config.GridPath).
		Dur("elapsed", time.Since(start)).
		Msg("decompressed level grid")

	paletteFile, err := os.Open(config.PalettePath)
	if err != nil {
		return nil, err
	}
	defer paletteFile.Close()
	palette, err := ReadPalette(bufio.NewReader(paletteFile), config.Terrains)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.PalettePath, err)
	}

	var terrains [NUM_TERRAINS]TerrainConfig
	copy(terrains[:], config.Terrains)

	return &Level{
		Size:     config.Size,
		FloodMap: flood,
		Height:   height,
		Meta:     meta,
		Palette:  palette,
		Terrains: terrains,
	}, nil
}

// readFloodMap reads the per-section water levels stored after the header
// region of the flood file. The offset is a closed-form function of the grid
// dimensions and the geo/section granularities, and the file length must
// match it exactly; anything else means the file belongs to a different
// format revision.
func readFloodMap(config *LevelConfig) ([]uint32, error) {
	geoPow, _ := power("geo", config.Geo)
	sectionPow, _ := power("section", config.Section)
	w, h := int64(config.Size[0]), int64(config.Size[1])

	floodSize := h >> sectionPow
	netSize := w * h >> (2 * geoPow)
	offset := 2*4 + (1+4+4)*4 + 2*netSize + 2*int64(geoPow)*4 +
		2*floodSize*int64(geoPow)*4
	expected := offset + floodSize*4

	f, err := os.Open(config.FloodPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() != expected {
		return nil, fmt.Errorf(
			"%s: file is %d bytes, expected %d: %w",
			config.FloodPath, info.Size(), expected, ErrIntegrity,
		)
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	flood := make([]uint32, floodSize)
	if err := binary.Read(bufio.NewReader(f), binary.LittleEndian, flood); err != nil {
		return nil, fmt.Errorf("%s: flood table: %w", config.FloodPath, err)
	}
	return flood, nil
}

func readGrid(config *LevelConfig) (height, meta []byte, err error) {
	w, h := int(config.Size[0]), int(config.Size[1])

	f, err := os.Open(config.GridPath)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	// Per-row compressed block offsets and sizes. The size table is part
	// of the layout but decoding only needs the offsets.
	br := bufio.NewReader(f)
	offsets := make([]int32, h)
	sizes := make([]int16, h)
	for y := 0; y < h; y++ {
		if err := binary.Read(br, binary.LittleEndian, &offsets[y]); err != nil {
			return nil, nil, fmt.Errorf("%s: offset table: %w", config.GridPath, err)
		}
		if err := binary.Read(br, binary.LittleEndian, &sizes[y]); err != nil {
			return nil, nil, fmt.Errorf("%s: size table: %w", config.GridPath, err)
		}
	}

	tree, err := splay.NewSplay(br)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", config.GridPath, err)
	}

	height = make([]byte, w*h)
	meta = make([]byte, w*h)

	var group errgroup.Group
	for begin := 0; begin < h; begin += rowGroupSize {
		begin := begin
		end := min(begin+rowGroupSize, h)
		group.Go(func() error {
			// Workers seek independently, so each needs its own
			// handle on the grid file.
			src, err := os.Open(config.GridPath)
			if err != nil {
				return err
			}
			defer src.Close()

			for y := begin; y < end; y++ {
				row := bufio.NewReader(
					io.NewSectionReader(src, int64(offsets[y]), 1<<31),
				)
				if err := tree.Expand1(row, height[y*w:(y+1)*w]); err != nil {
					return fmt.Errorf("%s: row %d height: %w", config.GridPath, y, err)
				}
				if err := tree.Expand2(row, meta[y*w:(y+1)*w]); err != nil {
					return fmt.Errorf("%s: row %d meta: %w", config.GridPath, y, err)
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return height, meta, nil
}
