package m3d

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// MODEL_FILE is the metadata document tying an unpacked model directory
// together.
const MODEL_FILE = "model.yaml"

// RefMesh is the unresolved form of a mesh: everything but the geometry,
// which it references as an OBJ path relative to the metadata document.
// Resolve is the explicit transition to a loaded Mesh.
type RefMesh struct {
	Geometry  string     `yaml:"geometry"`
	Bounds    Bounds     `yaml:"bounds"`
	ParentOff [3]float32 `yaml:"parent_off"`
	ParentRot [3]float32 `yaml:"parent_rot"`
	MaxRadius float32    `yaml:"max_radius"`
	Physics   Physics    `yaml:"physics"`
}

type RefWheel struct {
	Mesh       *RefMesh   `yaml:"mesh,omitempty"`
	Steer      uint32     `yaml:"steer"`
	Pos        [3]float32 `yaml:"pos"`
	Width      uint32     `yaml:"width"`
	Radius     uint32     `yaml:"radius"`
	BoundIndex uint32     `yaml:"bound_index"`
}

type RefDebrie struct {
	Mesh  RefMesh `yaml:"mesh"`
	Shape RefMesh `yaml:"shape"`
}

type RefSlot struct {
	Mesh  *RefMesh `yaml:"mesh,omitempty"`
	Scale float32  `yaml:"scale"`
	Pos   [3]int32 `yaml:"pos"`
	Angle int32    `yaml:"angle"`
}

type RefModel struct {
	Body       RefMesh            `yaml:"body"`
	Shape      RefMesh            `yaml:"shape"`
	Dimensions [3]uint32          `yaml:"dimensions"`
	MaxRadius  uint32             `yaml:"max_radius"`
	Color      [2]uint32          `yaml:"color"`
	Wheels     []RefWheel         `yaml:"wheels"`
	Debris     []RefDebrie        `yaml:"debris"`
	Slots      [MAX_SLOTS]RefSlot `yaml:"slots"`
}

// Resolve loads the referenced geometry and produces a full Mesh.
func (rm *RefMesh) Resolve(dir string) (Mesh, error) {
	f, err := os.Open(filepath.Join(dir, rm.Geometry))
	if err != nil {
		return Mesh{}, err
	}
	defer f.Close()

	geometry, err := LoadOBJ(f)
	if err != nil {
		return Mesh{}, fmt.Errorf("%s: %w", rm.Geometry, err)
	}
	return Mesh{
		Geometry:  geometry,
		Bounds:    rm.Bounds,
		ParentOff: rm.ParentOff,
		ParentRot: rm.ParentRot,
		MaxRadius: rm.MaxRadius,
		Physics:   rm.Physics,
	}, nil
}

func (m *Mesh) ref(name string) RefMesh {
	return RefMesh{
		Geometry:  name,
		Bounds:    m.Bounds,
		ParentOff: m.ParentOff,
		ParentRot: m.ParentRot,
		MaxRadius: m.MaxRadius,
		Physics:   m.Physics,
	}
}

func saveMesh(mesh *Mesh, dir, name string) (RefMesh, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return RefMesh{}, err
	}
	defer f.Close()

	if err := mesh.Geometry.SaveOBJ(f); err != nil {
		return RefMesh{}, fmt.Errorf("%s: %w", name, err)
	}
	return mesh.ref(name), nil
}

// ExportModel unpacks a model into a directory: per-part OBJ geometry plus
// a model.yaml metadata document referencing the parts by relative path.
func ExportModel(model *Model, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	ref := RefModel{
		Dimensions: model.Dimensions,
		MaxRadius:  model.MaxRadius,
		Color:      model.Color,
	}

	var err error
	if ref.Body, err = saveMesh(&model.Body, dir, "body.obj"); err != nil {
		return err
	}
	if ref.Shape, err = saveMesh(&model.Shape, dir, "body-shape.obj"); err != nil {
		return err
	}

	for i, wheel := range model.Wheels {
		refWheel := RefWheel{
			Steer:      wheel.Steer,
			Pos:        wheel.Pos,
			Width:      wheel.Width,
			Radius:     wheel.Radius,
			BoundIndex: wheel.BoundIndex,
		}
		if wheel.Mesh != nil {
			mesh, err := saveMesh(wheel.Mesh, dir, fmt.Sprintf("wheel%d.obj", i))
			if err != nil {
				return err
			}
			refWheel.Mesh = &mesh
		}
		ref.Wheels = append(ref.Wheels, refWheel)
	}

	for i, debrie := range model.Debris {
		mesh, err := saveMesh(&debrie.Mesh, dir, fmt.Sprintf("debrie%d.obj", i))
		if err != nil {
			return err
		}
		shape, err := saveMesh(&debrie.Shape, dir, fmt.Sprintf("debrie%d-shape.obj", i))
		if err != nil {
			return err
		}
		ref.Debris = append(ref.Debris, RefDebrie{Mesh: mesh, Shape: shape})
	}

	for s, slot := range model.Slots {
		refSlot := RefSlot{Scale: slot.Scale, Pos: slot.Pos, Angle: slot.Angle}
		if slot.Mesh != nil {
			mesh, err := saveMesh(slot.Mesh, dir, fmt.Sprintf("slot%d.obj", s))
			if err != nil {
				return err
			}
			refSlot.Mesh = &mesh
		}
		ref.Slots[s] = refSlot
	}

	data, err := yaml.Marshal(&ref)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, MODEL_FILE), data, 0644); err != nil {
		return err
	}
	log.Info().
		Str("dir", dir).
		Int("wheels", len(model.Wheels)).
		Int("debris", len(model.Debris)).
		Msg("exported model")
	return nil
}

func resolveOptional(rm *RefMesh, dir string) (*Mesh, error) {
	if rm == nil {
		return nil, nil
	}
	mesh, err := rm.Resolve(dir)
	if err != nil {
		return nil, err
	}
	return &mesh, nil
}

// ImportModel is the reverse of ExportModel: it reads the metadata document
// and resolves every referenced geometry file back into a full Model.
func ImportModel(dir string) (*Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, MODEL_FILE))
	if err != nil {
		return nil, err
	}
	ref := RefModel{}
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("%s: %w", MODEL_FILE, err)
	}

	model := Model{
		Dimensions: ref.Dimensions,
		MaxRadius:  ref.MaxRadius,
		Color:      ref.Color,
	}
	if model.Body, err = ref.Body.Resolve(dir); err != nil {
		return nil, err
	}
	if model.Shape, err = ref.Shape.Resolve(dir); err != nil {
		return nil, err
	}

	for _, refWheel := range ref.Wheels {
		mesh, err := resolveOptional(refWheel.Mesh, dir)
		if err != nil {
			return nil, err
		}
		model.Wheels = append(model.Wheels, Wheel{
			Mesh:       mesh,
			Steer:      refWheel.Steer,
			Pos:        refWheel.Pos,
			Width:      refWheel.Width,
			Radius:     refWheel.Radius,
			BoundIndex: refWheel.BoundIndex,
		})
	}

	for _, refDebrie := range ref.Debris {
		mesh, err := refDebrie.Mesh.Resolve(dir)
		if err != nil {
			return nil, err
		}
		shape, err := refDebrie.Shape.Resolve(dir)
		if err != nil {
			return nil, err
		}
		model.Debris = append(model.Debris, Debrie{Mesh: mesh, Shape: shape})
	}

	for s, refSlot := range ref.Slots {
		mesh, err := resolveOptional(refSlot.Mesh, dir)
		if err != nil {
			return nil, err
		}
		model.Slots[s] = Slot{
			Mesh:  mesh,
			Scale: refSlot.Scale,
			Pos:   refSlot.Pos,
			Angle: refSlot.Angle,
		}
	}
	return &model, nil
}
