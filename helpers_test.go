package motionhdr_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeJPEG returns a structurally valid baseline JPEG of exactly n bytes (n >= 32).
func fakeJPEG(t *testing.T, n int) []byte {
	t.Helper()

	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8})
	b.Write([]byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00})
	b.Write([]byte{0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3F, 0x00})

	scan := n - b.Len() - 2
	require.GreaterOrEqual(t, scan, 0, "fake jpeg too small")
	b.Write(bytes.Repeat([]byte{0x5A}, scan))
	b.Write([]byte{0xFF, 0xD9})

	return b.Bytes()
}

// fakeVideo returns n bytes that do not look like a JPEG.
func fakeVideo(n int) []byte {
	v := make([]byte, n)
	for i := range v {
		v[i] = byte(i % 251)
	}
	if n >= 8 {
		copy(v[4:], "ftyp")
	}
	return v
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o600))

	return p
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
