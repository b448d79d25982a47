// Package jpegx holds JPEG marker constants and signature checks shared by the
// container reader and writer.
package jpegx

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// JPEG marker bytes (second byte after 0xFF).
const (
	MarkerStart = 0xFF
	MarkerSOI   = 0xD8
	MarkerEOI   = 0xD9
	MarkerSOS   = 0xDA
	MarkerRST0  = 0xD0
	MarkerRST7  = 0xD7
	MarkerTEM   = 0x01
	MarkerAPP0  = 0xE0
	MarkerAPP1  = 0xE1
	MarkerAPP2  = 0xE2
	MarkerAPP15 = 0xEF
	MarkerCOM   = 0xFE
)

// MaxSegmentPayload is the largest payload a length-prefixed marker segment can carry.
const MaxSegmentPayload = 0xFFFF - 2

// Signature is the SOI marker every JPEG stream starts with.
var Signature = []byte{MarkerStart, MarkerSOI}

// IsStandalone reports whether marker has no length-prefixed payload.
func IsStandalone(marker byte) bool {
	return marker == MarkerSOI || marker == MarkerEOI || marker == MarkerTEM ||
		(marker >= MarkerRST0 && marker <= MarkerRST7)
}

// HasSignature reports whether data starts with the SOI marker.
func HasSignature(data []byte) bool {
	return bytes.HasPrefix(data, Signature)
}

// ReadSignature reads the first bytes of r and reports whether they are the SOI marker.
func ReadSignature(r io.Reader) (bool, error) {
	buf := make([]byte, len(Signature))
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return HasSignature(buf), nil
}

// FileHasSignature opens the file at path and checks its SOI marker.
func FileHasSignature(path string) (bool, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return false, err
	}
	defer f.Close()

	return ReadSignature(f)
}
