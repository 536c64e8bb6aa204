package m3d

// Model binary format, version 8. All integers little-endian.
const (
	MAGIC_VERSION = 8
	MAX_SLOTS     = 3
)

// Bounds of a mesh in model units. The stream stores max before min.
type Bounds struct {
	CoordMin [3]int32 `yaml:"coord_min"`
	CoordMax [3]int32 `yaml:"coord_max"`
}

// Physics holds the precomputed rigid-body parameters of a mesh: volume,
// center of mass and the inertia tensor, column-major.
type Physics struct {
	Volume float32       `yaml:"volume"`
	RCM    [3]float32    `yaml:"rcm"`
	Jacobi [3][3]float32 `yaml:"jacobi"`
}

type Vertex struct {
	Pos    [3]int8
	Normal [3]int8
	Color  uint8
}

// Geometry is the vertex data of one mesh. Indices is only populated by the
// compacting decode path; without compaction vertices appear once per
// polygon corner and Indices stays empty.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint16
}

type Mesh struct {
	Geometry  Geometry
	Bounds    Bounds
	ParentOff [3]float32
	ParentRot [3]float32
	MaxRadius float32
	Physics   Physics
}

// Wheel has a nested mesh only when it steers.
type Wheel struct {
	Mesh       *Mesh
	Steer      uint32
	Pos        [3]float32
	Width      uint32
	Radius     uint32
	BoundIndex uint32
}

// Debrie is a detachable part: a visual mesh plus its collision shape.
type Debrie struct {
	Mesh  Mesh
	Shape Mesh
}

// Slot is one of the three fixed attachment points of a vehicle.
type Slot struct {
	Mesh  *Mesh
	Scale float32
	Pos   [3]int32
	Angle int32
}

type Model struct {
	Body       Mesh
	Shape      Mesh
	Dimensions [3]uint32
	MaxRadius  uint32
	Color      [2]uint32
	Wheels     []Wheel
	Debris     []Debrie
	Slots      [MAX_SLOTS]Slot
}
