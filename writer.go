// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webpanim

import (
	"fmt"
	"io"
)

// MaxCanvasDim is the largest canvas width or height the codecs support.
const MaxCanvasDim = 16384

// MaxLoopCount is the largest loop count the ANIM chunk's 16-bit field can
// hold.  A loop count of 0 means loop forever.
const MaxLoopCount = 0xffff

// MaxDuration is the largest frame duration, in milliseconds, the ANMF
// chunk's 24-bit field can hold.  Larger durations are clamped at emission.
const MaxDuration = 0xffffff

const maxChunkLen = 0xffffffff

// VP8X flag bits, as per the WebP container spec.
const (
	flagICC       = 0x20
	flagAlpha     = 0x10
	flagEXIF      = 0x08
	flagXMP       = 0x04
	flagAnimation = 0x02
)

// DisposeOp is the frame disposal method, as per the WebP container spec.
type DisposeOp uint8

const (
	DisposeOp_None       = DisposeOp(0)
	DisposeOp_Background = DisposeOp(1)
)

// BlendOp is the frame blending method, as per the WebP container spec.
// BlendOp_Over composites the frame onto the canvas using its alpha;
// BlendOp_Source overwrites the canvas rectangle outright.
type BlendOp uint8

const (
	BlendOp_Over   = BlendOp(0)
	BlendOp_Source = BlendOp(1)
)

// Chunk_VP8X is the extended-feature chunk, as per the WebP container spec.
// Write this first, immediately after the RIFF header.
type Chunk_VP8X struct {
	HasICC       bool
	HasAlpha     bool
	HasEXIF      bool
	HasXMP       bool
	HasAnimation bool
	CanvasWidth  uint32 // in pixels; stored as width minus one
	CanvasHeight uint32
}

const sizeOfVP8X = 4 + sizeOfUint24*2

// WriteTo encodes the VP8X chunk to the io.Writer.  This supports the
// io.WriterTo interface.
func (c *Chunk_VP8X) WriteTo(w io.Writer) (int64, error) {
	buf := [sizeOfVP8X]byte{}
	if c.HasICC {
		buf[0] |= flagICC
	}
	if c.HasAlpha {
		buf[0] |= flagAlpha
	}
	if c.HasEXIF {
		buf[0] |= flagEXIF
	}
	if c.HasXMP {
		buf[0] |= flagXMP
	}
	if c.HasAnimation {
		buf[0] |= flagAnimation
	}
	// buf[1:4] are reserved and stay zero.
	writeUint24(buf[4:7], c.CanvasWidth-1)
	writeUint24(buf[7:10], c.CanvasHeight-1)
	return writeChunkTo("VP8X", buf[0:len(buf)], w)
}

// Chunk_ANIM is the animation control chunk, as per the WebP container
// spec.  Write this after VP8X but before any frame chunks.
type Chunk_ANIM struct {
	BackgroundBGRA [4]byte // canvas color shown between loops, blue first
	LoopCount      uint16  // 0 indicates infinite looping
}

const sizeOfANIM = 4 + sizeOfUint16

// WriteTo encodes the animation control chunk to the io.Writer.  This
// supports the io.WriterTo interface.
func (c *Chunk_ANIM) WriteTo(w io.Writer) (int64, error) {
	buf := [sizeOfANIM]byte{}
	copy(buf[0:4], c.BackgroundBGRA[:])
	writeUint16(buf[4:6], c.LoopCount)
	return writeChunkTo("ANIM", buf[0:len(buf)], w)
}

// Chunk_ANMF is one frame chunk, as per the WebP container spec.  It nests
// an optional ALPH chunk and exactly one VP8 or VP8L chunk after a 16-byte
// control prefix.
type Chunk_ANMF struct {
	X, Y          uint32 // placement offsets; stored in units of 2 pixels
	Width, Height uint32 // in pixels; stored as size minus one
	Duration      uint32 // milliseconds; clamped to MaxDuration
	DisposeOp     DisposeOp
	BlendOp       BlendOp
	Codec         Codec
	Alpha         []byte // ALPH chunk payload, nil for none
	Payload       []byte // VP8 or VP8L chunk payload
}

const sizeOfANMFPrefix = sizeOfUint24*5 + 1

func (c *Chunk_ANMF) payloadLen() uint64 {
	n := uint64(sizeOfANMFPrefix)
	if c.Alpha != nil {
		n += ChunkHeaderLen + paddedLen(uint64(len(c.Alpha)))
	}
	n += ChunkHeaderLen + paddedLen(uint64(len(c.Payload)))
	return n
}

// WriteTo encodes the frame chunk, including its nested chunks, to the
// io.Writer.  This supports the io.WriterTo interface.
func (c *Chunk_ANMF) WriteTo(w io.Writer) (int64, error) {
	d := c.Duration
	if d > MaxDuration {
		d = MaxDuration
	}
	buf := [ChunkHeaderLen + sizeOfANMFPrefix]byte{}
	buf[0] = 'A'
	buf[1] = 'N'
	buf[2] = 'M'
	buf[3] = 'F'
	writeUint32(buf[4:8], uint32(c.payloadLen()))
	writeUint24(buf[8:11], c.X>>1)
	writeUint24(buf[11:14], c.Y>>1)
	writeUint24(buf[14:17], c.Width-1)
	writeUint24(buf[17:20], c.Height-1)
	writeUint24(buf[20:23], d)
	buf[23] = byte(c.DisposeOp&1) | byte(c.BlendOp&1)<<1

	hl, err := w.Write(buf[0:len(buf)])
	n := int64(hl)
	if err != nil {
		return n, err
	}
	if c.Alpha != nil {
		al, err := writeChunkTo("ALPH", c.Alpha, w)
		n += al
		if err != nil {
			return n, err
		}
	}
	pl, err := writeChunkTo(c.Codec.tag(), c.Payload, w)
	return n + pl, err
}

// Params are the fixed animation parameters supplied when the Animator is
// created.
type Params struct {
	Width          uint32  // canvas width in pixels, 1 to MaxCanvasDim
	Height         uint32  // canvas height in pixels, 1 to MaxCanvasDim
	BackgroundBGRA [4]byte // canvas background, blue-green-red-alpha
	LoopCount      uint32  // 0 means loop forever; at most MaxLoopCount
	HasAlpha       bool    // advisory; the VP8X alpha bit is derived from frames
}

// FrameRect is a frame's placement rectangle on the canvas, in pixels.
// X and Y must be even; the container stores them in units of two pixels.
type FrameRect struct {
	X      uint32
	Y      uint32
	Width  uint32
	Height uint32
}

// FrameOptions carries the per-frame settings for AddFrameOptions.  The
// zero value places the frame over the full canvas with zero duration,
// DisposeOp_None, and BlendOp_Over.
type FrameOptions struct {
	Rect     *FrameRect // nil means the full canvas
	Duration uint32     // display time in milliseconds
	Dispose  DisposeOp
	Blend    BlendOp
}

type frameRecord struct {
	codec    Codec
	hasAlpha bool
	alpha    []byte
	payload  []byte
	rect     FrameRect
	duration uint32
	dispose  DisposeOp
	blend    BlendOp
}

// Animator accumulates frames and writes the finished animated WebP.  It
// starts in a building state; Finish moves it to a finished state in which
// every method fails with ErrAlreadyFinished.  An Animator must not be
// shared between goroutines while building.
type Animator struct {
	params   Params
	icc      []byte
	exif     []byte
	xmp      []byte
	frames   []frameRecord
	finished bool
}

// NewAnimator makes an Animator for the given canvas parameters.
func NewAnimator(p Params) (*Animator, error) {
	if p.Width < 1 || p.Width > MaxCanvasDim || p.Height < 1 || p.Height > MaxCanvasDim {
		return nil, fmt.Errorf("%w: canvas %dx%d", ErrInvalidParams, p.Width, p.Height)
	}
	if p.LoopCount > MaxLoopCount {
		return nil, fmt.Errorf("%w: loop count %d", ErrInvalidParams, p.LoopCount)
	}
	return &Animator{params: p}, nil
}

// AddFrame appends one still WebP image to the animation, displayed for
// durationMS milliseconds.  A nil rect places the frame over the full
// canvas, which then requires the image to be exactly canvas-sized.  The
// canvas is cleared to the background color after the frame and the next
// frame overwrites its rectangle without blending; use AddFrameOptions for
// other disposal or blending behavior.
func (a *Animator) AddFrame(data []byte, rect *FrameRect, durationMS uint32) error {
	return a.AddFrameOptions(data, FrameOptions{
		Rect:     rect,
		Duration: durationMS,
		Dispose:  DisposeOp_Background,
		Blend:    BlendOp_Source,
	})
}

// AddFrameOptions appends one still WebP image with explicit per-frame
// settings.  The image is inspected and validated before anything is
// recorded; on error the Animator is unchanged.  Frames display in the
// order they are added.
func (a *Animator) AddFrameOptions(data []byte, o FrameOptions) error {
	if a.finished {
		return ErrAlreadyFinished
	}
	ins, err := Inspect(data)
	if err != nil {
		return err
	}
	var rect FrameRect
	if o.Rect != nil {
		if o.Rect.Width != ins.Width || o.Rect.Height != ins.Height {
			return fmt.Errorf("%w: rect is %dx%d, frame is %dx%d",
				ErrPlacementSizeMismatch, o.Rect.Width, o.Rect.Height, ins.Width, ins.Height)
		}
		rect = *o.Rect
	} else {
		if ins.Width != a.params.Width || ins.Height != a.params.Height {
			return fmt.Errorf("%w: frame is %dx%d, canvas is %dx%d",
				ErrFrameCanvasMismatch, ins.Width, ins.Height, a.params.Width, a.params.Height)
		}
		rect = FrameRect{Width: a.params.Width, Height: a.params.Height}
	}
	if rect.X&1 != 0 || rect.Y&1 != 0 {
		return fmt.Errorf("%w: offset (%d,%d)", ErrUnalignedOffset, rect.X, rect.Y)
	}
	if uint64(rect.X)+uint64(rect.Width) > uint64(a.params.Width) ||
		uint64(rect.Y)+uint64(rect.Height) > uint64(a.params.Height) {
		return fmt.Errorf("%w: rect (%d,%d)+%dx%d on a %dx%d canvas",
			ErrFrameOutOfBounds, rect.X, rect.Y, rect.Width, rect.Height,
			a.params.Width, a.params.Height)
	}
	rec := frameRecord{
		codec:    ins.Codec,
		hasAlpha: ins.HasAlpha,
		payload:  append([]byte(nil), ins.Payload...),
		rect:     rect,
		duration: o.Duration,
		dispose:  o.Dispose,
		blend:    o.Blend,
	}
	if ins.HasAlpha {
		rec.alpha = append([]byte{}, ins.Alpha...)
	}
	a.frames = append(a.frames, rec)
	return nil
}

// SetICCProfile attaches an ICC color profile, written as an ICCP chunk.
func (a *Animator) SetICCProfile(p []byte) error {
	if a.finished {
		return ErrAlreadyFinished
	}
	a.icc = append([]byte(nil), p...)
	return nil
}

// SetEXIFMetadata attaches EXIF metadata, written as an EXIF chunk.
func (a *Animator) SetEXIFMetadata(p []byte) error {
	if a.finished {
		return ErrAlreadyFinished
	}
	a.exif = append([]byte(nil), p...)
	return nil
}

// SetXMPMetadata attaches XMP metadata, written as an XMP chunk.
func (a *Animator) SetXMPMetadata(p []byte) error {
	if a.finished {
		return ErrAlreadyFinished
	}
	a.xmp = append([]byte(nil), p...)
	return nil
}

// Finish writes the complete animated WebP to w and moves the Animator to
// its finished state.  Validation failures (ErrEmptyAnimation,
// ErrSizeOverflow) happen before any byte is written and leave the
// Animator usable; once writing starts the Animator is finished whether or
// not w reports an error, since a sink holding partial output cannot be
// re-streamed.  Write errors from w are returned unwrapped.
func (a *Animator) Finish(w io.Writer) error {
	if a.finished {
		return ErrAlreadyFinished
	}
	if len(a.frames) == 0 {
		return ErrEmptyAnimation
	}

	hasAlpha := false
	for i := range a.frames {
		if a.frames[i].hasAlpha {
			hasAlpha = true
			break
		}
	}

	anmfs := make([]Chunk_ANMF, len(a.frames))
	for i := range a.frames {
		f := &a.frames[i]
		anmfs[i] = Chunk_ANMF{
			X:         f.rect.X,
			Y:         f.rect.Y,
			Width:     f.rect.Width,
			Height:    f.rect.Height,
			Duration:  f.duration,
			DisposeOp: f.dispose,
			BlendOp:   f.blend,
			Codec:     f.codec,
			Payload:   f.payload,
		}
		if f.hasAlpha {
			anmfs[i].Alpha = f.alpha
		}
	}

	// The RIFF length field counts everything after itself, starting at
	// the WEBP form tag.  All chunk sizes are known up front, so the
	// header is written correct the first time.
	total := uint64(4 + ChunkHeaderLen + sizeOfVP8X + ChunkHeaderLen + sizeOfANIM)
	for i := range anmfs {
		n := anmfs[i].payloadLen()
		if n > maxChunkLen {
			return fmt.Errorf("%w: frame %d chunk is %d bytes", ErrSizeOverflow, i, n)
		}
		total += ChunkHeaderLen + paddedLen(n)
	}
	for _, m := range [...][]byte{a.icc, a.exif, a.xmp} {
		if len(m) == 0 {
			continue
		}
		if uint64(len(m)) > maxChunkLen {
			return fmt.Errorf("%w: metadata chunk is %d bytes", ErrSizeOverflow, len(m))
		}
		total += ChunkHeaderLen + paddedLen(uint64(len(m)))
	}
	if total > maxChunkLen {
		return fmt.Errorf("%w: container is %d bytes", ErrSizeOverflow, total)
	}

	a.finished = true

	hdr := [RiffHeaderLen]byte{'R', 'I', 'F', 'F', 0, 0, 0, 0, 'W', 'E', 'B', 'P'}
	writeUint32(hdr[4:8], uint32(total))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	vp8x := Chunk_VP8X{
		HasICC:       len(a.icc) > 0,
		HasAlpha:     hasAlpha,
		HasEXIF:      len(a.exif) > 0,
		HasXMP:       len(a.xmp) > 0,
		HasAnimation: true,
		CanvasWidth:  a.params.Width,
		CanvasHeight: a.params.Height,
	}
	if _, err := vp8x.WriteTo(w); err != nil {
		return err
	}
	if len(a.icc) > 0 {
		if _, err := writeChunkTo("ICCP", a.icc, w); err != nil {
			return err
		}
	}
	anim := Chunk_ANIM{
		BackgroundBGRA: a.params.BackgroundBGRA,
		LoopCount:      uint16(a.params.LoopCount),
	}
	if _, err := anim.WriteTo(w); err != nil {
		return err
	}
	for i := range anmfs {
		if _, err := anmfs[i].WriteTo(w); err != nil {
			return err
		}
	}
	if len(a.exif) > 0 {
		if _, err := writeChunkTo("EXIF", a.exif, w); err != nil {
			return err
		}
	}
	if len(a.xmp) > 0 {
		if _, err := writeChunkTo("XMP ", a.xmp, w); err != nil {
			return err
		}
	}
	return nil
}
