package webpanim

import "errors"

// Every failure mode is a distinct sentinel; details are wrapped with
// fmt.Errorf("%w: ...") so callers can branch with errors.Is.  Sink write
// failures are returned as-is, not wrapped.
var (
	// ErrInvalidParams is returned by NewAnimator when the canvas
	// dimensions are outside [1, 16384] or the loop count exceeds 65535.
	ErrInvalidParams = errors.New("webpanim: invalid animation parameters")

	// ErrMalformedEnvelope is returned by Inspect when the RIFF/WEBP
	// signature is missing, the declared envelope length disagrees with
	// the buffer, or the chunk sequence inside it is structurally wrong.
	ErrMalformedEnvelope = errors.New("webpanim: malformed WebP envelope")

	// ErrUnsupportedChunk is returned by Inspect when a chunk tag is
	// neither VP8X, ALPH, VP8 , nor VP8L, or a codec header is corrupt.
	ErrUnsupportedChunk = errors.New("webpanim: unsupported chunk")

	// ErrTruncatedData is returned by Inspect when a declared chunk
	// length runs past the end of the buffer.
	ErrTruncatedData = errors.New("webpanim: truncated chunk data")

	// ErrPlacementSizeMismatch is returned by AddFrame when an explicit
	// placement rectangle's size differs from the frame's intrinsic size.
	ErrPlacementSizeMismatch = errors.New("webpanim: placement size does not match frame")

	// ErrFrameCanvasMismatch is returned by AddFrame when no placement is
	// given and the frame's intrinsic size differs from the canvas.
	ErrFrameCanvasMismatch = errors.New("webpanim: frame size does not match canvas")

	// ErrFrameOutOfBounds is returned by AddFrame when the placement
	// rectangle extends past the canvas.
	ErrFrameOutOfBounds = errors.New("webpanim: frame placement outside canvas")

	// ErrUnalignedOffset is returned by AddFrame when a placement offset
	// is odd; the container stores offsets in units of two pixels.
	ErrUnalignedOffset = errors.New("webpanim: frame offset not a multiple of 2")

	// ErrEmptyAnimation is returned by Finish when no frames were added.
	ErrEmptyAnimation = errors.New("webpanim: animation has no frames")

	// ErrSizeOverflow is returned by Finish when a chunk length or the
	// container total would not fit the 32-bit RIFF size field.
	ErrSizeOverflow = errors.New("webpanim: chunk size overflows 32 bits")

	// ErrAlreadyFinished is returned by every Animator method after
	// Finish has started writing.
	ErrAlreadyFinished = errors.New("webpanim: animator already finished")
)
