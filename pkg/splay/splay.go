package splay

import (
	"encoding/binary"
	"fmt"
	"io"
)

// The compressed level grid stores two prefix-code trees right after the
// per-row offset tables: one for the height channel, one for the meta
// channel. Each tree is 512 signed 32-bit entries where slot 2*node+bit
// holds either the next node to visit or, when non-positive, the negated
// symbol value.

const TREE_SIZE = 512

// TREE_BYTES is the size of the serialized tree region in the stream.
const TREE_BYTES = 2 * TREE_SIZE * 4

type Splay struct {
	tree1 [TREE_SIZE]int32
	tree2 [TREE_SIZE]int32
}

// NewSplay reads both code trees from the stream. The returned value is
// read-only and safe to share between goroutines decoding different rows.
func NewSplay(r io.Reader) (*Splay, error) {
	s := Splay{}
	if err := binary.Read(r, binary.LittleEndian, s.tree1[:]); err != nil {
		return nil, fmt.Errorf("splay: reading height tree: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, s.tree2[:]); err != nil {
		return nil, fmt.Errorf("splay: reading meta tree: %w", err)
	}
	return &s, nil
}

func expand(tree *[TREE_SIZE]int32, r io.Reader, out []byte, combine func(last, sym byte) byte) error {
	var (
		last    byte
		cur     byte
		bits    uint
		scratch [1]byte
	)
	for i := range out {
		code := int32(1)
		for {
			if bits == 0 {
				if _, err := io.ReadFull(r, scratch[:]); err != nil {
					return fmt.Errorf("splay: stream ended %d bytes into a %d byte row: %w", i, len(out), err)
				}
				cur = scratch[0]
				bits = 8
			}
			slot := 2*int(code) + int(cur>>7)
			cur <<= 1
			bits--
			if slot >= TREE_SIZE {
				return fmt.Errorf("splay: corrupt code tree, node %d out of range", code)
			}
			code = tree[slot]
			if code <= 0 {
				break
			}
		}
		last = combine(last, byte(-code))
		out[i] = last
	}
	return nil
}

// Expand1 decodes exactly len(out) bytes of the height channel. Symbols are
// deltas; each output byte is the wrapping sum of everything decoded so far.
// Every call starts byte-aligned with a fresh accumulator.
func (s *Splay) Expand1(r io.Reader, out []byte) error {
	return expand(&s.tree1, r, out, func(last, sym byte) byte { return last + sym })
}

// Expand2 decodes exactly len(out) bytes of the meta channel, which
// accumulates by XOR instead of addition.
func (s *Splay) Expand2(r io.Reader, out []byte) error {
	return expand(&s.tree2, r, out, func(last, sym byte) byte { return last ^ sym })
}
