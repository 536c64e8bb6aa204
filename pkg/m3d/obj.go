package m3d

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// The side-channel keeps geometry as Wavefront OBJ so the parts stay
// editable in ordinary 3D tools. The palette color channel rides on the
// extra-component extension of `v` lines, replicated into r/g/b.

// SaveOBJ writes the geometry as OBJ: one `v`/`vn` pair per vertex and
// triangle faces. Non-indexed geometry gets sequential faces.
func (g *Geometry) SaveOBJ(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, v := range g.Vertices {
		c := float64(v.Color) / 255
		fmt.Fprintf(bw, "v %d %d %d %.6f %.6f %.6f\n",
			v.Pos[0], v.Pos[1], v.Pos[2], c, c, c)
	}
	for _, v := range g.Vertices {
		fmt.Fprintf(bw, "vn %d %d %d\n", v.Normal[0], v.Normal[1], v.Normal[2])
	}

	indices := g.Indices
	if indices == nil {
		indices = make([]uint16, len(g.Vertices))
		for i := range indices {
			indices[i] = uint16(i)
		}
	}
	for i := 0; i+3 <= len(indices); i += 3 {
		fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n",
			indices[i]+1, indices[i]+1,
			indices[i+1]+1, indices[i+1]+1,
			indices[i+2]+1, indices[i+2]+1)
	}
	return bw.Flush()
}

// LoadOBJ reads geometry previously written by SaveOBJ. The result is
// always indexed: vertices come from the `v`/`vn` line pairs and faces
// become the index buffer. Corners must reference position and normal by
// the same ordinal.
func LoadOBJ(r io.Reader) (Geometry, error) {
	geometry := Geometry{}
	var normals [][3]int8

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return Geometry{}, fmt.Errorf("obj line %d: short vertex", line)
			}
			var vertex Vertex
			for i := 0; i < 3; i++ {
				value, err := strconv.ParseFloat(fields[1+i], 64)
				if err != nil {
					return Geometry{}, fmt.Errorf("obj line %d: %w", line, err)
				}
				vertex.Pos[i] = int8(value)
			}
			if len(fields) >= 7 {
				value, err := strconv.ParseFloat(fields[4], 64)
				if err != nil {
					return Geometry{}, fmt.Errorf("obj line %d: %w", line, err)
				}
				vertex.Color = uint8(math.Round(value * 255))
			}
			geometry.Vertices = append(geometry.Vertices, vertex)
		case "vn":
			if len(fields) < 4 {
				return Geometry{}, fmt.Errorf("obj line %d: short normal", line)
			}
			var normal [3]int8
			for i := 0; i < 3; i++ {
				value, err := strconv.ParseFloat(fields[1+i], 64)
				if err != nil {
					return Geometry{}, fmt.Errorf("obj line %d: %w", line, err)
				}
				normal[i] = int8(value)
			}
			normals = append(normals, normal)
		case "f":
			for _, field := range fields[1:] {
				position, normal, err := parseCorner(field)
				if err != nil {
					return Geometry{}, fmt.Errorf("obj line %d: %w", line, err)
				}
				if position != normal {
					return Geometry{}, fmt.Errorf(
						"obj line %d: corner %s splits position and normal indices",
						line, field,
					)
				}
				if position < 1 || position > len(geometry.Vertices) {
					return Geometry{}, fmt.Errorf(
						"obj line %d: corner %s out of range", line, field,
					)
				}
				geometry.Indices = append(geometry.Indices, uint16(position-1))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Geometry{}, err
	}

	if len(normals) != len(geometry.Vertices) {
		return Geometry{}, fmt.Errorf(
			"obj: %d normals for %d vertices", len(normals), len(geometry.Vertices),
		)
	}
	for i := range normals {
		geometry.Vertices[i].Normal = normals[i]
	}
	return geometry, nil
}

func parseCorner(field string) (int, int, error) {
	parts := strings.Split(field, "/")
	if len(parts) != 3 || parts[1] != "" {
		return 0, 0, fmt.Errorf("corner %q is not in v//vn form", field)
	}
	position, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	normal, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, err
	}
	return position, normal, nil
}
