package motionhdr

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vearutop/motionhdr/internal/jpegx"
)

// MPFIndex is the MPF directory of a container primary image.
type MPFIndex struct {
	PrimarySize int `json:"primarySize"`
	// SecondaryOffset is absolute, from the start of the file.
	SecondaryOffset int `json:"secondaryOffset"`
	SecondarySize   int `json:"secondarySize"`
}

// Part is a segment cut out of a container.
type Part struct {
	Segment
	Offset int64  `json:"offset"`
	Data   []byte `json:"-"`
}

// SplitResult holds the segments of a container.
type SplitResult struct {
	Descriptor *Descriptor `json:"descriptor"`
	Parts      []Part      `json:"parts"`
	MPF        *MPFIndex   `json:"mpf,omitempty"`
}

// Part returns the segment with role r.
func (s *SplitResult) Part(r Role) (Part, bool) {
	for _, p := range s.Parts {
		if p.Role == r {
			return p, true
		}
	}
	return Part{}, false
}

// Primary returns the primary image bytes, injected descriptor included.
func (s *SplitResult) Primary() []byte {
	p, _ := s.Part(RolePrimary)
	return p.Data
}

// GainMap returns the gain map image, or nil.
func (s *SplitResult) GainMap() []byte {
	p, _ := s.Part(RoleGainMap)
	return p.Data
}

// Video returns the motion photo video, or nil.
func (s *SplitResult) Video() []byte {
	p, _ := s.Part(RoleMotionPhoto)
	return p.Data
}

// Split cuts a container into its segments using the directory of its descriptor.
// The declared lengths must add up to the container size.
func Split(data []byte) (*SplitResult, error) {
	d, err := ReadDescriptor(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if total := d.Total(); total != int64(len(data)) {
		return nil, fmt.Errorf("%w: declared total %d, container size %d", ErrLengthMismatch, total, len(data))
	}

	res := &SplitResult{Descriptor: d}

	size := int64(len(data))
	var offset int64
	for _, s := range d.Directory {
		if s.Length > size-offset || s.Padding > size-offset-s.Length {
			return nil, fmt.Errorf("%w: %s segment at %d overruns the container", ErrLengthMismatch, s.Role, offset)
		}
		end := offset + s.Length
		p := Part{Segment: s, Offset: offset, Data: data[offset:end]}
		if s.Role != RoleMotionPhoto && !jpegx.HasSignature(p.Data) {
			return nil, fmt.Errorf("%w: %s segment at %d is not a JPEG", ErrLengthMismatch, s.Role, offset)
		}
		res.Parts = append(res.Parts, p)
		offset = end + s.Padding
	}

	if info, ok := findMPFInfo(data); ok {
		res.MPF = &MPFIndex{
			PrimarySize:     info.primarySize,
			SecondaryOffset: info.secondaryOffset,
			SecondarySize:   info.secondarySize,
		}
	}

	return res, nil
}

// SplitFile reads and splits the container at path.
func SplitFile(path string) (*SplitResult, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return Split(data)
}

// Report is the outcome of inspecting a container.
type Report struct {
	Size       int64       `json:"size"`
	Descriptor *Descriptor `json:"descriptor"`
	MPF        *MPFIndex   `json:"mpf,omitempty"`
	Problems   []string    `json:"problems,omitempty"`
}

// Valid tells whether no problem was found.
func (r *Report) Valid() bool {
	return len(r.Problems) == 0
}

// Inspect reads the descriptor of a container and checks it against the bytes.
// Only a missing or malformed descriptor is an error, inconsistencies are listed in Report.Problems.
func Inspect(data []byte) (*Report, error) {
	d, err := ReadDescriptor(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	r := &Report{Size: int64(len(data)), Descriptor: d}
	problem := func(format string, args ...any) {
		r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
	}

	if total := d.Total(); total != r.Size {
		problem("declared total %d differs from size %d", total, r.Size)
	}

	var offset int64
	for _, s := range d.Directory {
		if s.Length > r.Size-offset || s.Padding > r.Size-offset-s.Length {
			problem("%s segment at %d overruns the container", s.Role, offset)
			break
		}
		if s.Role == RoleGainMap && !jpegx.HasSignature(data[offset:offset+s.Length]) {
			problem("%s segment at %d is not a JPEG", s.Role, offset)
		}
		offset += s.Length + s.Padding
	}

	if info, ok := findMPFInfo(data); ok {
		r.MPF = &MPFIndex{
			PrimarySize:     info.primarySize,
			SecondaryOffset: info.secondaryOffset,
			SecondarySize:   info.secondarySize,
		}
		if primary, ok := d.Length(RolePrimary); ok && int64(info.secondaryOffset) != primary {
			problem("MPF secondary offset %d differs from primary length %d", info.secondaryOffset, primary)
		}
		if gm, ok := d.Length(RoleGainMap); ok && int64(info.secondarySize) != gm {
			problem("MPF secondary size %d differs from gain map length %d", info.secondarySize, gm)
		}
	}

	return r, nil
}
