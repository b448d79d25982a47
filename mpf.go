package motionhdr

import "encoding/binary"

const (
	mpfNumPictures = 2
	mpfEndianSize  = 4
	mpfTagCount    = 3
	mpfTagSize     = 12

	mpfTypeLong      = 0x4
	mpfTypeUndefined = 0x7

	mpfVersionTagID        = 0xB000
	mpfVersionCount        = 4
	mpfNumberOfImagesTag   = 0xB001
	mpfNumberOfImagesCount = 1
	mpfEntryTag            = 0xB002
	mpfEntrySize           = 16

	mpfAttrFormatJpeg  = 0x0000000
	mpfAttrTypePrimary = 0x030000
)

var (
	mpfSig       = []byte{'M', 'P', 'F', 0}
	mpfBigEndian = []byte{0x4D, 0x4D, 0x00, 0x2A}
	mpfVersion   = []byte(mpfVersionTag)
)

func calculateMpfSize() int {
	return len(mpfSig) + mpfEndianSize + 4 + 2 + mpfTagCount*mpfTagSize + 4 + mpfNumPictures*mpfEntrySize
}

// generateMpf builds an MPF APP2 payload for a primary image and one secondary image.
// The payload size does not depend on the values, so it can be written with zeros
// first and patched once the primary size is known.
func generateMpf(primarySize, secondarySize, secondaryOffset int) []byte {
	buf := make([]byte, 0, calculateMpfSize())
	putU16 := func(v uint16) { buf = binary.BigEndian.AppendUint16(buf, v) }
	putU32 := func(v uint32) { buf = binary.BigEndian.AppendUint32(buf, v) }

	buf = append(buf, mpfSig...)
	buf = append(buf, mpfBigEndian...)

	indexIfdOffset := uint32(mpfEndianSize + len(mpfSig))
	putU32(indexIfdOffset)

	putU16(mpfTagCount)

	putU16(mpfVersionTagID)
	putU16(mpfTypeUndefined)
	putU32(mpfVersionCount)
	buf = append(buf, mpfVersion...)

	putU16(mpfNumberOfImagesTag)
	putU16(mpfTypeLong)
	putU32(mpfNumberOfImagesCount)
	putU32(mpfNumPictures)

	putU16(mpfEntryTag)
	putU16(mpfTypeUndefined)
	putU32(mpfEntrySize * mpfNumPictures)
	// Offset from TIFF header start (after MPF signature).
	mpEntryOffset := uint32(8 + 2 + mpfTagCount*mpfTagSize + 4)
	putU32(mpEntryOffset)

	// Attribute IFD offset (zero)
	putU32(0)

	// Primary entry, offset is always zero.
	putU32(mpfAttrFormatJpeg | mpfAttrTypePrimary)
	putU32(uint32(primarySize))
	putU32(0)
	putU16(0)
	putU16(0)

	// Secondary entry
	putU32(mpfAttrFormatJpeg)
	putU32(uint32(secondarySize))
	putU32(uint32(secondaryOffset))
	putU16(0)
	putU16(0)

	return buf
}
