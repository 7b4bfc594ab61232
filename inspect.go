package webpanim

import "fmt"

// Codec identifies which of the two still-image bitstream formats a frame
// payload uses.
type Codec uint8

const (
	Codec_Lossy    = Codec(0) // a "VP8 " bitstream
	Codec_Lossless = Codec(1) // a "VP8L" bitstream
)

func (c Codec) tag() string {
	if c == Codec_Lossless {
		return "VP8L"
	}
	return "VP8 "
}

// Inspection reports the structure of a single still WebP image: the codec
// variant, whether an ALPH chunk is present, the intrinsic pixel dimensions
// decoded from the codec's own header, and the sub-chunk payloads.  Alpha
// and Payload alias the inspected buffer; they are not copies.
type Inspection struct {
	Codec    Codec
	HasAlpha bool
	Width    uint32
	Height   uint32
	Alpha    []byte // ALPH chunk payload, nil when absent
	Payload  []byte // VP8 or VP8L chunk payload
}

// Inspect parses the envelope and chunk structure of a still WebP image.
// The accepted layout is an optional VP8X chunk, an optional ALPH chunk,
// and exactly one VP8 or VP8L chunk, in that order.  Inspect is a pure
// function: it keeps no state and never modifies data.
func Inspect(data []byte) (*Inspection, error) {
	if len(data) < RiffHeaderLen || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, fmt.Errorf("%w: missing RIFF/WEBP signature", ErrMalformedEnvelope)
	}
	if declared := uint64(readUint32(data[4:8])); declared != uint64(len(data)-ChunkHeaderLen) {
		return nil, fmt.Errorf("%w: declared length %d, buffer holds %d",
			ErrMalformedEnvelope, declared, len(data)-ChunkHeaderLen)
	}

	ins := new(Inspection)
	rest := data[RiffHeaderLen:]
	havePayload := false
	for first := true; len(rest) > 0; first = false {
		if len(rest) < ChunkHeaderLen {
			return nil, fmt.Errorf("%w: %d stray bytes where a chunk header should be",
				ErrTruncatedData, len(rest))
		}
		tag := string(rest[0:4])
		size := uint64(readUint32(rest[4:8]))
		if size > uint64(len(rest)-ChunkHeaderLen) {
			return nil, fmt.Errorf("%w: %s chunk declares %d bytes, %d remain",
				ErrTruncatedData, tag, size, len(rest)-ChunkHeaderLen)
		}
		body := rest[ChunkHeaderLen : ChunkHeaderLen+size]
		next := ChunkHeaderLen + size
		if size&1 == 1 && next < uint64(len(rest)) {
			next++ // skip the pad byte
		}
		rest = rest[next:]

		switch tag {
		case "VP8X":
			if !first {
				return nil, fmt.Errorf("%w: VP8X chunk not first", ErrMalformedEnvelope)
			}
			if len(body) != 10 {
				return nil, fmt.Errorf("%w: VP8X payload is %d bytes, want 10",
					ErrMalformedEnvelope, len(body))
			}
		case "ALPH":
			if ins.HasAlpha {
				return nil, fmt.Errorf("%w: duplicate ALPH chunk", ErrMalformedEnvelope)
			}
			ins.HasAlpha = true
			ins.Alpha = body
		case "VP8 ", "VP8L":
			var err error
			if tag == "VP8L" {
				ins.Codec = Codec_Lossless
				ins.Width, ins.Height, err = parseLosslessHeader(body)
			} else {
				ins.Codec = Codec_Lossy
				ins.Width, ins.Height, err = parseLossyHeader(body)
			}
			if err != nil {
				return nil, err
			}
			if len(rest) != 0 {
				return nil, fmt.Errorf("%w: %d bytes after the image chunk",
					ErrMalformedEnvelope, len(rest))
			}
			ins.Payload = body
			havePayload = true
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedChunk, tag)
		}
	}
	if !havePayload {
		return nil, fmt.Errorf("%w: no VP8 or VP8L chunk", ErrMalformedEnvelope)
	}
	return ins, nil
}

// parseLossyHeader decodes the dimensions from a VP8 key frame header: a
// 3-byte frame tag, the start code 9D 01 2A, then 16-bit fields whose low
// 14 bits hold the width and height.
func parseLossyHeader(b []byte) (w, h uint32, err error) {
	if len(b) < 10 {
		return 0, 0, fmt.Errorf("%w: VP8 header is %d bytes, want at least 10",
			ErrTruncatedData, len(b))
	}
	if b[3] != 0x9d || b[4] != 0x01 || b[5] != 0x2a {
		return 0, 0, fmt.Errorf("%w: bad VP8 start code", ErrUnsupportedChunk)
	}
	w = uint32(readUint16(b[6:8]) & 0x3fff)
	h = uint32(readUint16(b[8:10]) & 0x3fff)
	// The frame chunk stores dimensions minus one; a zero dimension is
	// unrepresentable in the container.
	if w == 0 || h == 0 {
		return 0, 0, fmt.Errorf("%w: VP8 frame is %dx%d", ErrUnsupportedChunk, w, h)
	}
	return w, h, nil
}

// parseLosslessHeader decodes the dimensions from a VP8L header: the
// signature byte 2F, then a 32-bit field holding width-1 in bits 0-13 and
// height-1 in bits 14-27.
func parseLosslessHeader(b []byte) (w, h uint32, err error) {
	if len(b) < 5 {
		return 0, 0, fmt.Errorf("%w: VP8L header is %d bytes, want at least 5",
			ErrTruncatedData, len(b))
	}
	if b[0] != 0x2f {
		return 0, 0, fmt.Errorf("%w: bad VP8L signature byte", ErrUnsupportedChunk)
	}
	bits := readUint32(b[1:5])
	w = bits&0x3fff + 1
	h = bits>>14&0x3fff + 1
	return w, h, nil
}
