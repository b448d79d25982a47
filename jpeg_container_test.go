package motionhdr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJPEG builds SOI, APP0 JFIF, an unrelated APP2, SOS, scan bytes and EOI.
func testJPEG(scan int) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8})
	b.Write([]byte{0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00})
	b.Write([]byte{0xFF, 0xE2, 0x00, 0x06, 'I', 'C', 'C', 0x00})
	b.Write([]byte{0xFF, 0xDA, 0x00, 0x08, 0x01, 0x01, 0x00, 0x00, 0x3F, 0x00})
	b.Write(bytes.Repeat([]byte{0x42}, scan))
	b.Write([]byte{0xFF, 0xD9})
	return b.Bytes()
}

func TestSpliceDescriptor(t *testing.T) {
	src := testJPEG(100)
	xmp := []byte("<x:xmpmeta>GContainer:Directory</x:xmpmeta>")

	out, err := spliceDescriptor(src, xmp, 0)
	require.NoError(t, err)
	assert.Equal(t, len(src)+4+len(xmpPrefix)+len(xmp), len(out))

	segs, rest, err := splitHeader(out)
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, byte(0xE0), segs[0].marker)
	assert.True(t, segs[1].isXMP())
	assert.Equal(t, xmp, segs[1].payload[len(xmpPrefix):])
	assert.Equal(t, byte(0xE2), segs[2].marker)
	assert.Equal(t, src[len(src)-len(rest):], rest)

	// A second splice replaces the packet instead of adding one.
	xmp2 := []byte("<x:xmpmeta>GContainer:Directory and more</x:xmpmeta>")
	out2, err := spliceDescriptor(out, xmp2, 0)
	require.NoError(t, err)
	assert.Equal(t, len(src)+4+len(xmpPrefix)+len(xmp2), len(out2))

	got, err := ReadXMP(bytes.NewReader(out2))
	require.NoError(t, err)
	assert.Equal(t, xmp2, got)

	_, err = spliceDescriptor([]byte("nope"), xmp, 0)
	assert.Error(t, err)
}

func TestSpliceDescriptor_mpf(t *testing.T) {
	src := testJPEG(64)
	xmp := []byte("<x:xmpmeta>GContainer:Directory</x:xmpmeta>")

	out, err := spliceDescriptor(src, xmp, 300)
	require.NoError(t, err)
	assert.Equal(t, len(src)+4+len(xmpPrefix)+len(xmp)+4+calculateMpfSize(), len(out))

	info, ok := findMPFInfo(out)
	require.True(t, ok)
	assert.Equal(t, len(out), info.primarySize)
	assert.Equal(t, 300, info.secondarySize)
	assert.Equal(t, len(out), info.secondaryOffset, "gain map starts right after the primary image")

	// Re-splicing keeps a single MPF segment and the same size.
	out2, err := spliceDescriptor(out, xmp, 300)
	require.NoError(t, err)
	assert.Equal(t, out, out2)
}

func TestGenerateMpf(t *testing.T) {
	assert.Len(t, generateMpf(0, 0, 0), calculateMpfSize())
	assert.Equal(t, 86, calculateMpfSize())

	info, err := parseMPF(generateMpf(1000, 200, 900))
	require.NoError(t, err)
	assert.Equal(t, mpfInfo{primarySize: 1000, secondarySize: 200, secondaryOffset: 900}, info)
}
