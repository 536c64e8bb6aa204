package m3d

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOBJRoundTrip(t *testing.T) {
	geometry := Geometry{
		Vertices: []Vertex{
			{Pos: [3]int8{-120, 0, 5}, Normal: [3]int8{0, 0, 127}, Color: 0},
			{Pos: [3]int8{1, 2, 3}, Normal: [3]int8{0, 127, 0}, Color: 128},
			{Pos: [3]int8{4, 5, 6}, Normal: [3]int8{127, 0, 0}, Color: 255},
			{Pos: [3]int8{7, 8, 9}, Normal: [3]int8{0, -127, 0}, Color: 17},
		},
		Indices: []uint16{0, 1, 2, 0, 2, 3},
	}

	var buf bytes.Buffer
	require.NoError(t, geometry.SaveOBJ(&buf))

	loaded, err := LoadOBJ(&buf)
	require.NoError(t, err)
	assert.Equal(t, geometry, loaded)
}

func TestLoadOBJRejectsSplitCorners(t *testing.T) {
	_, err := LoadOBJ(strings.NewReader(`
v 0 0 0 0 0 0
v 1 0 0 0 0 0
v 0 1 0 0 0 0
vn 0 0 1
vn 0 0 1
vn 0 0 1
f 1//2 2//2 3//3
`))
	assert.Error(t, err)
}

func TestLoadOBJCountMismatch(t *testing.T) {
	_, err := LoadOBJ(strings.NewReader(`
v 0 0 0
vn 0 0 1
vn 0 1 0
`))
	assert.Error(t, err)
}
