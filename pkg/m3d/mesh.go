package m3d

import (
	"fmt"
	"io"
	"sort"

	"github.com/rs/zerolog/log"
)

// cornerKey is the attribute tuple a polygon corner references. Corners
// with equal keys weld into one vertex during compaction.
type cornerKey struct {
	pos   [4]int8
	norm  [4]uint8
	color [2]uint32
}

func (k cornerKey) less(o cornerKey) bool {
	for i := range k.pos {
		if k.pos[i] != o.pos[i] {
			return k.pos[i] < o.pos[i]
		}
	}
	for i := range k.norm {
		if k.norm[i] != o.norm[i] {
			return k.norm[i] < o.norm[i]
		}
	}
	for i := range k.color {
		if k.color[i] != o.color[i] {
			return k.color[i] < o.color[i]
		}
	}
	return false
}

// Only the first color channel survives into the vertex; the second is a
// palette sub-index the original renderer never consumed. Kept as-is rather
// than guessed at.
func (k cornerKey) vertex() Vertex {
	return Vertex{
		Pos:    [3]int8{k.pos[0], k.pos[1], k.pos[2]},
		Normal: [3]int8{int8(k.norm[0]), int8(k.norm[1]), int8(k.norm[2])},
		Color:  uint8(k.color[0]),
	}
}

// corner is one polygon corner before welding: its absolute slot in the
// polygon order plus the attribute tuple.
type corner struct {
	slot uint32
	key  cornerKey
}

// ReadMesh decodes a single mesh block. With compact set, corners sharing
// an attribute tuple are welded into one vertex and an index buffer keyed
// by corner slot is emitted; otherwise every corner becomes its own vertex
// and no index buffer is produced.
func ReadMesh(src io.Reader, compact bool) (*Mesh, error) {
	return readMesh(&reader{src: src}, compact)
}

func readMesh(r *reader, compact bool) (*Mesh, error) {
	var version uint32
	if err := r.read(&version); err != nil {
		return nil, err
	}
	if version != MAGIC_VERSION {
		return nil, fmt.Errorf("offset %d: version %d, want %d: %w",
			r.off, version, MAGIC_VERSION, ErrVersion)
	}

	var counts struct {
		Positions uint32
		Normals   uint32
		Polygons  uint32
		Total     uint32 // redundant corner total, unused
	}
	if err := r.read(&counts); err != nil {
		return nil, err
	}

	mesh := Mesh{}
	var err error
	if mesh.Bounds, err = readBounds(r); err != nil {
		return nil, err
	}
	if mesh.ParentOff, err = readIntVec(r); err != nil {
		return nil, err
	}
	var radius uint32
	if err := r.read(&radius); err != nil {
		return nil, err
	}
	mesh.MaxRadius = float32(radius)
	if mesh.ParentRot, err = readIntVec(r); err != nil {
		return nil, err
	}
	if mesh.Physics, err = readPhysics(r); err != nil {
		return nil, err
	}
	log.Debug().
		Interface("bounds", mesh.Bounds).
		Uint32("positions", counts.Positions).
		Uint32("normals", counts.Normals).
		Uint32("polygons", counts.Polygons).
		Msg("mesh block")

	positions := make([][4]int8, counts.Positions)
	for i := range positions {
		var rec struct {
			Unknown [3]float32
			Pos     [3]int8
			Sort    uint32
		}
		if err := r.read(&rec); err != nil {
			return nil, err
		}
		positions[i] = [4]int8{rec.Pos[0], rec.Pos[1], rec.Pos[2], 1}
	}

	normals := make([][4]uint8, counts.Normals)
	for i := range normals {
		var rec struct {
			Normal [4]uint8
			Sort   uint32
		}
		if err := r.read(&rec); err != nil {
			return nil, err
		}
		normals[i] = rec.Normal
	}

	corners := make([]corner, 0, counts.Polygons*3)
	for i := uint32(0); i < counts.Polygons; i++ {
		var head struct {
			Corners    uint32
			Sort       uint32
			Color      [2]uint32
			FlatNormal [4]uint8
			Middle     [3]uint8
		}
		if err := r.read(&head); err != nil {
			return nil, err
		}
		if head.Corners != 3 && head.Corners != 4 {
			return nil, fmt.Errorf("offset %d: polygon %d has %d corners: %w",
				r.off, i, head.Corners, ErrPolygonArity)
		}
		for k := uint32(0); k < head.Corners; k++ {
			var ref struct {
				Pos    uint32
				Normal uint32
			}
			if err := r.read(&ref); err != nil {
				return nil, err
			}
			if int(ref.Pos) >= len(positions) || int(ref.Normal) >= len(normals) {
				return nil, fmt.Errorf(
					"offset %d: polygon %d references position %d/%d normal %d/%d: %w",
					r.off, i, ref.Pos, len(positions), ref.Normal, len(normals),
					ErrIntegrity,
				)
			}
			corners = append(corners, corner{
				slot: i*3 + k,
				key: cornerKey{
					pos:   positions[ref.Pos],
					norm:  normals[ref.Normal],
					color: head.Color,
				},
			})
		}
	}

	// Three legacy sorted-polygon acceleration tables, unused.
	if err := r.discard(3 * int64(counts.Polygons) * 4); err != nil {
		return nil, err
	}

	if compact {
		mesh.Geometry = weld(corners)
	} else {
		vertices := make([]Vertex, len(corners))
		for i, c := range corners {
			vertices[i] = c.key.vertex()
		}
		mesh.Geometry = Geometry{Vertices: vertices}
	}
	return &mesh, nil
}

// weld collapses corners with identical attribute tuples into shared
// vertices and rebuilds the per-corner index buffer in original slot order.
func weld(corners []corner) Geometry {
	sorted := make([]corner, len(corners))
	copy(sorted, corners)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].key.less(sorted[j].key)
	})

	geometry := Geometry{
		Vertices: make([]Vertex, 0, len(corners)),
		Indices:  make([]uint16, len(corners)),
	}
	for i, c := range sorted {
		if i == 0 || c.key != sorted[i-1].key {
			geometry.Vertices = append(geometry.Vertices, c.key.vertex())
		}
		geometry.Indices[c.slot] = uint16(len(geometry.Vertices) - 1)
	}
	return geometry
}

func readBounds(r *reader) (Bounds, error) {
	var raw [6]int32
	if err := r.read(&raw); err != nil {
		return Bounds{}, err
	}
	// Stored max-then-min.
	return Bounds{
		CoordMin: [3]int32{raw[3], raw[4], raw[5]},
		CoordMax: [3]int32{raw[0], raw[1], raw[2]},
	}, nil
}

func readIntVec(r *reader) ([3]float32, error) {
	var raw [3]int32
	err := r.read(&raw)
	return [3]float32{float32(raw[0]), float32(raw[1]), float32(raw[2])}, err
}

// readPhysics reads 13 doubles and narrows them into the rigid-body record:
// volume, center of mass, then the inertia tensor in a column interleave.
func readPhysics(r *reader) (Physics, error) {
	var q [13]float64
	if err := r.read(&q); err != nil {
		return Physics{}, err
	}
	return Physics{
		Volume: float32(q[0]),
		RCM:    [3]float32{float32(q[1]), float32(q[2]), float32(q[3])},
		Jacobi: [3][3]float32{
			{float32(q[4]), float32(q[7]), float32(q[10])},
			{float32(q[5]), float32(q[8]), float32(q[11])},
			{float32(q[6]), float32(q[9]), float32(q[12])},
		},
	}, nil
}
