// Package imaging provides the pixel-level operations of the color variation
// engine: decoding images into a normalized PixelBuffer, HSV conversion, the
// per-pixel selection mask, channel adjustment, thumbnails and PNG output.
//
// # Pixel Layout
//
// A PixelBuffer stores 8-bit, non-premultiplied samples row-major with (0,0)
// at the top-left corner. Buffers have 3 channels (RGB) or 4 channels (RGBA).
// Images decoded with any form of transparency become 4-channel buffers; all
// others become 3-channel buffers.
//
// # Color Model
//
// Hue/saturation changes use the HSV hexcone model via go-colorful:
//   - H: hue in degrees, 0 <= H < 360
//   - S: saturation, 0 to 1
//   - V: value, 0 to 1
//
// Conversions between 8-bit RGB and HSV round half-up, so converting a color
// to HSV and back is lossless.
//
// # Masking
//
// MaskPolicy combines a grayscale gate (none, exact, near) and a transparency
// gate (all, transparent only, opaque only). Pixels rejected by the mask keep
// their RGB values. Alpha is never modified by any operation in this package.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. PixelBuffers are not
// synchronized; a buffer that is only read may be shared between goroutines.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Files that are missing or are not images (ErrNotImage)
//   - Invalid buffer dimensions or channel counts
//   - Channel strengths outside [0.0, 2.0]
//   - Malformed hex colors
//   - Encoding errors during image output
package imaging
