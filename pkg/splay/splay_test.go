package splay

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityTree builds a full depth-8 tree: every 8 input bits decode to the
// byte they spell, so stream bytes map 1:1 to symbols.
func identityTree() []int32 {
	tree := make([]int32, TREE_SIZE)
	for i := 2; i < 256; i++ {
		tree[i] = int32(i)
	}
	for i := 256; i < TREE_SIZE; i++ {
		tree[i] = -int32(i - 256)
	}
	return tree
}

func treeBytes(tree1, tree2 []int32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, tree1)
	binary.Write(&buf, binary.LittleEndian, tree2)
	return buf.Bytes()
}

func TestExpandIdentityTrees(t *testing.T) {
	s, err := NewSplay(bytes.NewReader(treeBytes(identityTree(), identityTree())))
	require.NoError(t, err)

	// Height symbols accumulate by wrapping addition.
	out := make([]byte, 4)
	err = s.Expand1(bytes.NewReader([]byte{5, 1, 255, 0}), out)
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 6, 5, 5}, out)

	// Meta symbols accumulate by XOR.
	out = make([]byte, 3)
	err = s.Expand2(bytes.NewReader([]byte{0xF0, 0x0F, 0xFF}), out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xF0, 0xFF, 0x00}, out)
}

func TestExpandHeightThenMeta(t *testing.T) {
	s, err := NewSplay(bytes.NewReader(treeBytes(identityTree(), identityTree())))
	require.NoError(t, err)

	// Both channels of a row are decoded back to back from the same
	// stream, height first, each starting byte-aligned.
	r := bytes.NewReader([]byte{10, 20, 0x30, 0x01})
	height := make([]byte, 2)
	meta := make([]byte, 2)
	require.NoError(t, s.Expand1(r, height))
	require.NoError(t, s.Expand2(r, meta))
	assert.Equal(t, []byte{10, 30}, height)
	assert.Equal(t, []byte{0x30, 0x31}, meta)
}

func TestExpandVariableLengthCodes(t *testing.T) {
	// 0 -> 65, 10 -> 66, 11 -> 67.
	tree := make([]int32, TREE_SIZE)
	tree[2] = -65
	tree[3] = 2
	tree[4] = -66
	tree[5] = -67

	s, err := NewSplay(bytes.NewReader(treeBytes(tree, identityTree())))
	require.NoError(t, err)

	out := make([]byte, 4)
	err = s.Expand1(bytes.NewReader([]byte{0b01011000}), out)
	require.NoError(t, err)
	assert.Equal(t, []byte{65, 131, 198, 7}, out)
}

func TestExpandTruncated(t *testing.T) {
	s, err := NewSplay(bytes.NewReader(treeBytes(identityTree(), identityTree())))
	require.NoError(t, err)

	out := make([]byte, 4)
	err = s.Expand1(bytes.NewReader([]byte{1, 2}), out)
	assert.Error(t, err)
}

func TestNewSplayTruncated(t *testing.T) {
	_, err := NewSplay(bytes.NewReader(make([]byte, TREE_BYTES/2)))
	assert.Error(t, err)
}
