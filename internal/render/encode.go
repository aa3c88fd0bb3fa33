package render

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
)

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeICO wraps img in a single-entry ICO container with a PNG payload,
// the format the Windows notification area expects.
func EncodeICO(img image.Image) ([]byte, error) {
	payload, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() > 256 || b.Dy() > 256 {
		return nil, fmt.Errorf("encode ico: %dx%d exceeds 256x256", b.Dx(), b.Dy())
	}

	const headerLen = 6 + 16

	var buf bytes.Buffer
	// ICONDIR: reserved, type (1 = icon), count.
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY. A width or height of 256 is stored as 0.
	buf.WriteByte(byte(b.Dx() % 256))
	buf.WriteByte(byte(b.Dy() % 256))
	buf.WriteByte(0) // palette size
	buf.WriteByte(0) // reserved
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))  // color planes
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32)) // bits per pixel
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(headerLen))
	buf.Write(payload)

	return buf.Bytes(), nil
}

// EncodeForOS encodes img in the format the tray host on goos accepts.
func EncodeForOS(img image.Image, goos string) ([]byte, error) {
	if goos == "windows" {
		return EncodeICO(img)
	}
	return EncodePNG(img)
}
