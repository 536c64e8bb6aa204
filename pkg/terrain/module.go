package terrain

// Grid constants fixed by the on-disk level format.
const (
	NUM_TERRAINS = 8

	DOUBLE_LEVEL  = 1 << 6
	DELTA_SHIFT0  = 2 + 3
	DELTA_SHIFT1  = 0 + 3
	DELTA_MASK    = 0x3
	TERRAIN_SHIFT = 3

	HEIGHT_SCALE = 255
)

// ColorRange is a contiguous slice of palette indices owned by one terrain.
type ColorRange struct {
	Start uint8 `yaml:"start"`
	End   uint8 `yaml:"end"`
}

type TerrainConfig struct {
	ShadowOffset uint8      `yaml:"shadow_offset"`
	HeightShift  uint8      `yaml:"height_shift"`
	Colors       ColorRange `yaml:"colors"`
}

// Point is one level of a texel: an altitude plus a terrain type in [0,8).
type Point struct {
	Altitude uint8
	Terrain  uint8
}

// Texel is either a single- or a double-level grid cell.
type Texel interface {
	Top() uint8
}

type Single Point

func (s Single) Top() uint8 { return s.Altitude }

type Dual struct {
	Low   Point
	High  Point
	Delta uint8
}

func (d Dual) Top() uint8 { return d.High.Altitude }

// Level is a fully decoded terrain grid. Height and Meta are row-major and
// always exactly Size[0]*Size[1] bytes each.
type Level struct {
	Size     [2]int32
	FloodMap []uint32
	Height   []uint8
	Meta     []uint8
	Palette  [0x100][4]uint8
	Terrains [NUM_TERRAINS]TerrainConfig
}

func terrainType(meta uint8) uint8 {
	return (meta >> TERRAIN_SHIFT) & (NUM_TERRAINS - 1)
}

// At returns the texel at the given coordinate. The map is toroidal:
// coordinates wrap around the edges, including arbitrarily negative values.
// A texel with the double-level bit set is paired with its horizontal
// sibling; the even index holds the low level and the odd one the high.
func (l *Level) At(x, y int32) Texel {
	for x < 0 {
		x += l.Size[0]
	}
	for y < 0 {
		y += l.Size[1]
	}
	i := int((y%l.Size[1])*l.Size[0] + x%l.Size[0])
	meta := l.Meta[i]
	if meta&DOUBLE_LEVEL != 0 {
		lo, hi := i&^1, i|1
		m0, m1 := l.Meta[lo], l.Meta[hi]
		return Dual{
			Low:   Point{l.Height[lo], terrainType(m0)},
			High:  Point{l.Height[hi], terrainType(m1)},
			Delta: (m0&DELTA_MASK)<<DELTA_SHIFT0 + (m1&DELTA_MASK)<<DELTA_SHIFT1,
		}
	}
	return Single(Point{l.Height[i], terrainType(meta)})
}

// Export rasterizes the grid into an RGBA8 buffer, four bytes per texel.
// Single texels encode as {alt, alt, 0, terrain<<4}, dual ones as
// {lowAlt, highAlt, delta, lowTerrain | highTerrain<<4}.
func (l *Level) Export() []byte {
	w, h := int(l.Size[0]), int(l.Size[1])
	data := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pix := data[(y*w+x)*4 : (y*w+x)*4+4]
			switch t := l.At(int32(x), int32(y)).(type) {
			case Single:
				pix[0] = t.Altitude
				pix[1] = t.Altitude
				pix[2] = 0
				pix[3] = t.Terrain << 4
			case Dual:
				pix[0] = t.Low.Altitude
				pix[1] = t.High.Altitude
				pix[2] = t.Delta
				pix[3] = t.Low.Terrain | t.High.Terrain<<4
			}
		}
	}
	return data
}
