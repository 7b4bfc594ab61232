package webpanim

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

// chunk frames a payload the way the container does, pad byte included.
func chunk(tag string, payload []byte) []byte {
	var b bytes.Buffer
	if _, err := writeChunkTo(tag, payload, &b); err != nil {
		panic(err)
	}
	return b.Bytes()
}

// riffFile wraps already-framed chunks in a RIFF/WEBP envelope.
func riffFile(chunks ...[]byte) []byte {
	n := 4
	for _, c := range chunks {
		n += len(c)
	}
	b := make([]byte, 0, ChunkHeaderLen+n)
	b = append(b, "RIFF"...)
	b = append(b, 0, 0, 0, 0)
	writeUint32(b[4:8], uint32(n))
	b = append(b, "WEBP"...)
	for _, c := range chunks {
		b = append(b, c...)
	}
	return b
}

// losslessPayload builds a VP8L header for the given dimensions followed by
// extra filler bytes.
func losslessPayload(w, h uint32, extra int) []byte {
	p := make([]byte, 5+extra)
	p[0] = 0x2f
	writeUint32(p[1:5], (w-1)|(h-1)<<14)
	return p
}

// lossyPayload builds a VP8 key frame header for the given dimensions
// followed by extra filler bytes.
func lossyPayload(w, h uint32, extra int) []byte {
	p := make([]byte, 10+extra)
	p[3] = 0x9d
	p[4] = 0x01
	p[5] = 0x2a
	writeUint16(p[6:8], uint16(w))
	writeUint16(p[8:10], uint16(h))
	return p
}

func stillLossless(w, h uint32) []byte {
	return riffFile(chunk("VP8L", losslessPayload(w, h, 7)))
}

func stillLossy(w, h uint32) []byte {
	return riffFile(chunk("VP8 ", lossyPayload(w, h, 4)))
}

// stillLossyAlpha builds an extended-format still image: VP8X, ALPH, VP8 .
func stillLossyAlpha(w, h uint32, alpha []byte) []byte {
	vp8x := make([]byte, 10)
	vp8x[0] = flagAlpha
	writeUint24(vp8x[4:7], w-1)
	writeUint24(vp8x[7:10], h-1)
	return riffFile(chunk("VP8X", vp8x), chunk("ALPH", alpha), chunk("VP8 ", lossyPayload(w, h, 4)))
}

func TestInspectLossless(t *testing.T) {
	ins, err := Inspect(stillLossless(64, 48))
	if err != nil {
		t.Fatal(err)
	}
	if ins.Codec != Codec_Lossless {
		t.Errorf("codec = %d, want lossless", ins.Codec)
	}
	if ins.HasAlpha {
		t.Error("unexpected alpha")
	}
	if ins.Width != 64 || ins.Height != 48 {
		t.Errorf("dimensions = %dx%d, want 64x48", ins.Width, ins.Height)
	}
	if len(ins.Payload) != 12 {
		t.Errorf("payload length = %d, want 12", len(ins.Payload))
	}
}

func TestInspectLossy(t *testing.T) {
	ins, err := Inspect(stillLossy(320, 240))
	if err != nil {
		t.Fatal(err)
	}
	if ins.Codec != Codec_Lossy {
		t.Errorf("codec = %d, want lossy", ins.Codec)
	}
	if ins.Width != 320 || ins.Height != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", ins.Width, ins.Height)
	}
}

func TestInspectMaxDimensions(t *testing.T) {
	ins, err := Inspect(stillLossless(16384, 16384))
	if err != nil {
		t.Fatal(err)
	}
	if ins.Width != 16384 || ins.Height != 16384 {
		t.Errorf("dimensions = %dx%d, want 16384x16384", ins.Width, ins.Height)
	}
}

func TestInspectAlpha(t *testing.T) {
	alpha := []byte{1, 2, 3, 4, 5} // odd length, exercises the pad skip
	ins, err := Inspect(stillLossyAlpha(64, 64, alpha))
	if err != nil {
		t.Fatal(err)
	}
	if !ins.HasAlpha {
		t.Fatal("alpha chunk not detected")
	}
	if !bytes.Equal(ins.Alpha, alpha) {
		t.Errorf("alpha payload = %v, want %v", ins.Alpha, alpha)
	}
	if ins.Codec != Codec_Lossy {
		t.Errorf("codec = %d, want lossy", ins.Codec)
	}
}

func TestInspectIdempotent(t *testing.T) {
	data := stillLossyAlpha(64, 64, []byte{9, 8, 7})
	a, err := Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("inspections differ: %+v vs %+v", a, b)
	}
}

func TestInspectErrors(t *testing.T) {
	badLength := stillLossless(64, 64)
	badLength[4]++

	vp8xLate := riffFile(chunk("ALPH", []byte{0}), chunk("VP8X", make([]byte, 10)), chunk("VP8 ", lossyPayload(64, 64, 0)))

	trailing := riffFile(chunk("VP8L", losslessPayload(64, 64, 7)), chunk("ALPH", []byte{0}))

	overrun := riffFile(chunk("VP8L", losslessPayload(64, 64, 7)))
	overrun[16] = 0xff // VP8L declared length beyond the buffer

	badStart := riffFile(chunk("VP8 ", make([]byte, 10)))

	shortHeader := riffFile(chunk("VP8L", losslessPayload(64, 64, 7)[:4]))

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrMalformedEnvelope},
		{"not riff", []byte("JUNKJUNKJUNKJUNK"), ErrMalformedEnvelope},
		{"length mismatch", badLength, ErrMalformedEnvelope},
		{"no image chunk", riffFile(chunk("VP8X", make([]byte, 10))), ErrMalformedEnvelope},
		{"vp8x not first", vp8xLate, ErrMalformedEnvelope},
		{"trailing chunk", trailing, ErrMalformedEnvelope},
		{"duplicate alpha", riffFile(chunk("ALPH", nil), chunk("ALPH", nil), chunk("VP8 ", lossyPayload(64, 64, 0))), ErrMalformedEnvelope},
		{"unknown tag", riffFile(chunk("EXIF", []byte{1, 2})), ErrUnsupportedChunk},
		{"bad vp8 start code", badStart, ErrUnsupportedChunk},
		{"zero vp8 width", riffFile(chunk("VP8 ", lossyPayload(0, 64, 4))), ErrUnsupportedChunk},
		{"zero vp8 height", riffFile(chunk("VP8 ", lossyPayload(64, 0, 4))), ErrUnsupportedChunk},
		{"bad vp8l signature", riffFile(chunk("VP8L", make([]byte, 5))), ErrUnsupportedChunk},
		{"chunk overruns buffer", overrun, ErrTruncatedData},
		{"short codec header", shortHeader, ErrTruncatedData},
	}
	for _, c := range cases {
		if _, err := Inspect(c.data); !errors.Is(err, c.want) {
			t.Errorf("%s: error = %v, want %v", c.name, err, c.want)
		}
	}
}
