package motionhdr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/vearutop/motionhdr/internal/jpegx"
)

var exifSig = []byte{'E', 'x', 'i', 'f', 0, 0}

type appSegment struct {
	marker  byte
	payload []byte
}

func (s appSegment) isXMP() bool {
	return s.marker == jpegx.MarkerAPP1 && bytes.HasPrefix(s.payload, xmpPrefix)
}

func (s appSegment) isMPF() bool {
	return s.marker == jpegx.MarkerAPP2 && bytes.HasPrefix(s.payload, mpfSig)
}

func (s appSegment) isLeading() bool {
	return s.marker == jpegx.MarkerAPP0 || (s.marker == jpegx.MarkerAPP1 && bytes.HasPrefix(s.payload, exifSig))
}

// splitHeader returns the marker segments between SOI and the first SOS (or EOI),
// and the remaining bytes starting at that marker.
func splitHeader(data []byte) (segs []appSegment, rest []byte, err error) {
	if !jpegx.HasSignature(data) {
		return nil, nil, errors.New("invalid jpeg")
	}
	pos := 2
	for pos < len(data) {
		if data[pos] != jpegx.MarkerStart {
			return nil, nil, fmt.Errorf("unexpected byte %#x at %d", data[pos], pos)
		}
		start := pos
		for pos < len(data) && data[pos] == jpegx.MarkerStart {
			pos++
		}
		if pos >= len(data) {
			break
		}
		marker := data[pos]
		pos++
		if marker == jpegx.MarkerSOS || marker == jpegx.MarkerEOI {
			return segs, data[start:], nil
		}
		if jpegx.IsStandalone(marker) {
			segs = append(segs, appSegment{marker: marker})
			continue
		}
		if pos+1 >= len(data) {
			return nil, nil, errors.New("truncated marker")
		}
		segLen := int(binary.BigEndian.Uint16(data[pos:]))
		if segLen < 2 || pos+segLen > len(data) {
			return nil, nil, errors.New("invalid segment length")
		}
		segs = append(segs, appSegment{marker: marker, payload: data[pos+2 : pos+segLen]})
		pos += segLen
	}
	return nil, nil, errors.New("no scan data found")
}

func writeAppSegment(out *bytes.Buffer, marker byte, payload []byte) {
	out.WriteByte(jpegx.MarkerStart)
	out.WriteByte(marker)
	if jpegx.IsStandalone(marker) {
		return
	}
	length := uint16(len(payload) + 2)
	out.WriteByte(byte(length >> 8))
	out.WriteByte(byte(length))
	out.Write(payload)
}

// spliceDescriptor replaces the XMP and MPF segments of a JPEG. The XMP packet goes after
// the leading JFIF/EXIF segments. When gainMapLen is positive an MPF index describing the
// primary image and the gain map that follows it is written next to the XMP.
func spliceDescriptor(data, xmp []byte, gainMapLen int64) ([]byte, error) {
	segs, rest, err := splitHeader(data)
	if err != nil {
		return nil, err
	}

	xmpPayload := append(append([]byte(nil), xmpPrefix...), xmp...)
	if len(xmpPayload) > jpegx.MaxSegmentPayload {
		return nil, fmt.Errorf("xmp packet too large: %d bytes", len(xmp))
	}

	kept := segs[:0:0]
	for _, s := range segs {
		if s.isXMP() || s.isMPF() {
			continue
		}
		kept = append(kept, s)
	}

	var out bytes.Buffer
	out.Grow(len(data) + len(xmpPayload) + calculateMpfSize() + 8)
	out.WriteByte(jpegx.MarkerStart)
	out.WriteByte(jpegx.MarkerSOI)

	i := 0
	for ; i < len(kept) && kept[i].isLeading(); i++ {
		writeAppSegment(&out, kept[i].marker, kept[i].payload)
	}

	writeAppSegment(&out, jpegx.MarkerAPP1, xmpPayload)

	mpfStart := -1
	if gainMapLen > 0 {
		mpfStart = out.Len() + 4
		writeAppSegment(&out, jpegx.MarkerAPP2, generateMpf(0, 0, 0))
	}

	for ; i < len(kept); i++ {
		writeAppSegment(&out, kept[i].marker, kept[i].payload)
	}
	out.Write(rest)

	final := out.Bytes()
	if mpfStart >= 0 {
		primarySize := len(final)
		if int64(primarySize) > math.MaxUint32 || gainMapLen > math.MaxUint32 {
			return nil, errors.New("container too large for MPF")
		}
		// Offsets are relative to the TIFF header that follows the MPF signature.
		secondaryOffset := primarySize - (mpfStart + len(mpfSig))
		copy(final[mpfStart:], generateMpf(primarySize, int(gainMapLen), secondaryOffset))
	}

	return final, nil
}

type mpfInfo struct {
	primarySize     int
	secondarySize   int
	secondaryOffset int
}

// findMPFInfo locates the MPF index in the header of the first JPEG and returns the
// absolute offset of the secondary image.
func findMPFInfo(data []byte) (info mpfInfo, ok bool) {
	segs, _, err := splitHeader(data)
	if err != nil {
		return mpfInfo{}, false
	}
	pos := 2
	for _, s := range segs {
		if jpegx.IsStandalone(s.marker) {
			pos += 2
			continue
		}
		segStart := pos + 4
		if s.isMPF() {
			info, err := parseMPF(s.payload)
			if err != nil {
				return mpfInfo{}, false
			}
			info.secondaryOffset += segStart + len(mpfSig)
			return info, true
		}
		pos = segStart + len(s.payload)
	}
	return mpfInfo{}, false
}

func parseMPF(payload []byte) (mpfInfo, error) {
	if len(payload) < len(mpfSig)+8 || !bytes.HasPrefix(payload, mpfSig) {
		return mpfInfo{}, errors.New("mpf signature missing")
	}
	tiff := payload[len(mpfSig):]
	var order binary.ByteOrder
	switch {
	case tiff[0] == 0x4D && tiff[1] == 0x4D:
		order = binary.BigEndian
	case tiff[0] == 0x49 && tiff[1] == 0x49:
		order = binary.LittleEndian
	default:
		return mpfInfo{}, errors.New("mpf endian invalid")
	}
	if order.Uint16(tiff[2:4]) != 0x002A {
		return mpfInfo{}, errors.New("mpf tiff magic invalid")
	}
	ifdOffset := int(order.Uint32(tiff[4:8]))
	if ifdOffset < 0 || ifdOffset+2 > len(tiff) {
		return mpfInfo{}, errors.New("mpf ifd offset invalid")
	}
	ifdPos := ifdOffset
	tagCount := int(order.Uint16(tiff[ifdPos : ifdPos+2]))
	ifdPos += 2
	entryOffset, entryCount := -1, 0
	for i := 0; i < tagCount; i++ {
		if ifdPos+12 > len(tiff) {
			return mpfInfo{}, errors.New("mpf ifd truncated")
		}
		tag := order.Uint16(tiff[ifdPos : ifdPos+2])
		typ := order.Uint16(tiff[ifdPos+2 : ifdPos+4])
		count := order.Uint32(tiff[ifdPos+4 : ifdPos+8])
		value := order.Uint32(tiff[ifdPos+8 : ifdPos+12])
		if tag == mpfEntryTag && typ == mpfTypeUndefined && count >= mpfEntrySize {
			entryOffset = int(value)
			entryCount = int(count / mpfEntrySize)
			break
		}
		ifdPos += 12
	}
	if entryOffset < 0 || entryOffset+mpfEntrySize*entryCount > len(tiff) {
		return mpfInfo{}, errors.New("mpf entry offset invalid")
	}
	var info mpfInfo
	entryPos := entryOffset
	for i := 0; i < entryCount; i++ {
		attr := order.Uint32(tiff[entryPos : entryPos+4])
		size := int(order.Uint32(tiff[entryPos+4 : entryPos+8]))
		offset := int(order.Uint32(tiff[entryPos+8 : entryPos+12]))
		if attr&mpfAttrTypePrimary != 0 {
			info.primarySize = size
		} else if info.secondarySize == 0 {
			info.secondarySize = size
			info.secondaryOffset = offset
		}
		entryPos += mpfEntrySize
	}
	if info.primarySize == 0 || info.secondarySize == 0 {
		return mpfInfo{}, errors.New("mpf sizes missing")
	}
	return info, nil
}
