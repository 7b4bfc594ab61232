// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webpanim

import "io"

// RiffHeaderLen is the length of the outer envelope prefix: the "RIFF" tag,
// the 32-bit total length, and the "WEBP" form tag.
const RiffHeaderLen = 12

// ChunkHeaderLen is the per-chunk overhead: a 4-byte tag and a 32-bit
// little-endian length.  The length field counts payload bytes only, never
// the header or the trailing pad byte.
const ChunkHeaderLen = 8

// Little-endian.
func writeUint16(b []uint8, u uint16) {
	b[0] = uint8(u >> 0)
	b[1] = uint8(u >> 8)
}

const sizeOfUint16 = 2

// Little-endian.  The top byte of u must be zero; the container stores
// offsets, dimensions, and durations in 24-bit fields.
func writeUint24(b []uint8, u uint32) {
	b[0] = uint8(u >> 0)
	b[1] = uint8(u >> 8)
	b[2] = uint8(u >> 16)
}

const sizeOfUint24 = 3

// Little-endian.
func writeUint32(b []uint8, u uint32) {
	b[0] = uint8(u >> 0)
	b[1] = uint8(u >> 8)
	b[2] = uint8(u >> 16)
	b[3] = uint8(u >> 24)
}

const sizeOfUint32 = 4

// Little-endian.
func readUint16(b []uint8) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// Little-endian.
func readUint32(b []uint8) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// paddedLen returns the even length a chunk payload occupies on the wire.
func paddedLen(n uint64) uint64 {
	return n + n&1
}

// writeChunkTo frames b as a RIFF chunk: 4-byte tag, 32-bit little-endian
// payload length, the payload, and a single zero pad byte when the payload
// length is odd.  The pad byte is not counted in the length field.
func writeChunkTo(name string, b []byte, w io.Writer) (int64, error) {
	header := [ChunkHeaderLen]byte{}

	header[0] = name[0]
	header[1] = name[1]
	header[2] = name[2]
	header[3] = name[3]
	writeUint32(header[4:8], uint32(len(b)))

	hl, err := w.Write(header[:])
	if err != nil {
		return int64(hl), err
	}
	bl, err := w.Write(b)
	if err != nil {
		return int64(hl + bl), err
	}
	if len(b)&1 == 0 {
		return int64(hl + bl), nil
	}
	pl, err := w.Write([]byte{0})
	return int64(hl + bl + pl), err
}
