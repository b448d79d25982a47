package motionhdr

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vearutop/motionhdr/internal/jpegx"
)

var (
	xmpPrefix       = append([]byte(xmpNamespace), 0)
	directoryMarker = []byte("GContainer:Directory")
)

// ReadXMP returns the first XMP packet of the primary image that carries a GContainer
// directory. It reads only the header segments of the first JPEG.
func ReadXMP(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	ok, err := jpegx.ReadSignature(br)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a JPEG stream", ErrNoDescriptor)
	}

	for {
		marker, err := readMarker(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrNoDescriptor
			}
			return nil, err
		}
		switch {
		case marker == jpegx.MarkerEOI, marker == jpegx.MarkerSOS:
			return nil, ErrNoDescriptor
		case jpegx.IsStandalone(marker):
			continue
		case marker == jpegx.MarkerAPP1:
			payload, err := readSegment(br)
			if err != nil {
				return nil, err
			}
			if bytes.HasPrefix(payload, xmpPrefix) && bytes.Contains(payload, directoryMarker) {
				return payload[len(xmpPrefix):], nil
			}
		default:
			if err := discardSegment(br); err != nil {
				return nil, err
			}
		}
	}
}

// ReadDescriptor reads and parses the container descriptor of a JPEG stream.
func ReadDescriptor(r io.Reader) (*Descriptor, error) {
	xmp, err := ReadXMP(r)
	if err != nil {
		return nil, err
	}
	return ParseDescriptor(xmp)
}

// ReadDescriptorFile reads the container descriptor of the file at path.
func ReadDescriptorFile(path string) (*Descriptor, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadDescriptor(f)
}

func readMarker(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != jpegx.MarkerStart {
			continue
		}
		for {
			m, err := br.ReadByte()
			if err != nil {
				return 0, err
			}
			if m != jpegx.MarkerStart {
				return m, nil
			}
		}
	}
}

func readSegment(br *bufio.Reader) ([]byte, error) {
	length, err := readU16(br)
	if err != nil {
		return nil, err
	}
	if length < 2 {
		return nil, errors.New("invalid segment length")
	}
	buf := make([]byte, int(length)-2)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func discardSegment(br *bufio.Reader) error {
	length, err := readU16(br)
	if err != nil {
		return err
	}
	if length < 2 {
		return errors.New("invalid segment length")
	}
	_, err = io.CopyN(io.Discard, br, int64(length-2))
	return err
}

func readU16(br *bufio.Reader) (uint16, error) {
	hi, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	lo, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}
