package m3d

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// ReadModel decodes a complete multi-part model: body, wheels, debris, the
// shared collision shape and the three attachment slots. The layout is
// strictly sequential; a short read anywhere fails the whole decode.
func ReadModel(src io.Reader, compact bool) (*Model, error) {
	r := &reader{src: src}

	body, err := readMesh(r, compact)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}

	var head struct {
		Dimensions [3]uint32
		MaxRadius  uint32
		NumWheels  uint32
		NumDebris  uint32
		Color      [2]uint32
	}
	if err := r.read(&head); err != nil {
		return nil, err
	}
	log.Debug().
		Uint32("wheels", head.NumWheels).
		Uint32("debris", head.NumDebris).
		Msg("model header")

	model := Model{
		Body:       *body,
		Dimensions: head.Dimensions,
		MaxRadius:  head.MaxRadius,
		Color:      head.Color,
		Wheels:     make([]Wheel, 0, head.NumWheels),
		Debris:     make([]Debrie, 0, head.NumDebris),
	}

	for i := uint32(0); i < head.NumWheels; i++ {
		var rec struct {
			Steer      uint32
			Pos        [3]float64
			Width      uint32
			Radius     uint32
			BoundIndex uint32
		}
		if err := r.read(&rec); err != nil {
			return nil, fmt.Errorf("wheel %d: %w", i, err)
		}
		wheel := Wheel{
			Steer: rec.Steer,
			Pos: [3]float32{
				float32(rec.Pos[0]),
				float32(rec.Pos[1]),
				float32(rec.Pos[2]),
			},
			Width:      rec.Width,
			Radius:     rec.Radius,
			BoundIndex: rec.BoundIndex,
		}
		// Only steerable wheels carry their own mesh.
		if rec.Steer != 0 {
			mesh, err := readMesh(r, compact)
			if err != nil {
				return nil, fmt.Errorf("wheel %d: %w", i, err)
			}
			wheel.Mesh = mesh
		}
		model.Wheels = append(model.Wheels, wheel)
	}

	for i := uint32(0); i < head.NumDebris; i++ {
		mesh, err := readMesh(r, compact)
		if err != nil {
			return nil, fmt.Errorf("debrie %d: %w", i, err)
		}
		shape, err := readMesh(r, compact)
		if err != nil {
			return nil, fmt.Errorf("debrie %d shape: %w", i, err)
		}
		model.Debris = append(model.Debris, Debrie{Mesh: *mesh, Shape: *shape})
	}

	shape, err := readMesh(r, compact)
	if err != nil {
		return nil, fmt.Errorf("shape: %w", err)
	}
	model.Shape = *shape

	// The mask records which slots the game considers occupied; the slot
	// records themselves are always present.
	var slotMask uint32
	if err := r.read(&slotMask); err != nil {
		return nil, err
	}
	for s := range model.Slots {
		var rec struct {
			Pos   [3]int32
			Angle int32
		}
		if err := r.read(&rec); err != nil {
			return nil, fmt.Errorf("slot %d: %w", s, err)
		}
		model.Slots[s] = Slot{Pos: rec.Pos, Angle: rec.Angle, Scale: 1}
	}

	return &model, nil
}

// LoadModel reads a model from disk.
func LoadModel(path string, compact bool) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	model, err := ReadModel(bufio.NewReader(f), compact)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}
