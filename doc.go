// Package webpanim is used to do low-level animated WebP muxing.  Each frame
// is an already-encoded still WebP bitstream; the package validates it,
// records its placement and timing, and frames it into the RIFF container
// alongside the VP8X and ANIM chunks.  Pixel data is never decoded or
// re-encoded.
//
// For container details, see:
//
// https://developers.google.com/speed/webp/docs/riff_container
// https://datatracker.ietf.org/doc/html/rfc6386
// https://developers.google.com/speed/webp/docs/webp_lossless_bitstream_specification
package webpanim
