package motionhdr

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Descriptor is the parsed XMP of a container.
type Descriptor struct {
	MotionPhoto             bool         `json:"motionPhoto"`
	MotionPhotoVersion      int          `json:"motionPhotoVersion,omitempty"`
	PresentationTimestampUs int64        `json:"presentationTimestampUs,omitempty"`
	GainMap                 *GainMapInfo `json:"gainMap,omitempty"`
	Directory               []Segment    `json:"directory"`
}

// GainMapInfo holds the hdrgm fields of a descriptor. Absent optional fields are nil.
type GainMapInfo struct {
	Version        string   `json:"version"`
	GainMapMin     *float64 `json:"gainMapMin,omitempty"`
	GainMapMax     float64  `json:"gainMapMax"`
	Gamma          *float64 `json:"gamma,omitempty"`
	OffsetSDR      *float64 `json:"offsetSDR,omitempty"`
	OffsetHDR      *float64 `json:"offsetHDR,omitempty"`
	HDRCapacityMin *float64 `json:"hdrCapacityMin,omitempty"`
	HDRCapacityMax float64  `json:"hdrCapacityMax"`
	BaseRendition  string   `json:"baseRendition,omitempty"`
}

// Length returns the declared length of the segment with role r.
func (d *Descriptor) Length(r Role) (int64, bool) {
	for _, s := range d.Directory {
		if s.Role == r {
			return s.Length, true
		}
	}
	return 0, false
}

// Total is the sum of declared segment lengths and paddings, saturating at math.MaxInt64.
func (d *Descriptor) Total() int64 {
	var n int64
	for _, s := range d.Directory {
		for _, v := range [2]int64{s.Length, s.Padding} {
			if v > math.MaxInt64-n {
				return math.MaxInt64
			}
			n += v
		}
	}
	return n
}

// maxItemLength bounds declared lengths so that sums of a few items cannot overflow.
const maxItemLength = math.MaxInt64 / 4

// Values may be written as elements (<p:Name>v</p:Name>) or as attributes (p:Name="v").
func field(name string) *regexp.Regexp {
	q := regexp.QuoteMeta(name)
	return regexp.MustCompile(`<` + q + `>\s*([^<]*?)\s*</` + q + `>|` + q + `=["']([^"']*)["']`)
}

var (
	reMotionPhoto     = field("GCamera:MotionPhoto")
	reMotionPhotoVer  = field("GCamera:MotionPhotoVersion")
	reMotionTimestamp = field("GCamera:MotionPhotoPresentationTimestampUs")

	reVersion       = field("hdrgm:Version")
	reGainMapMin    = field("hdrgm:GainMapMin")
	reGainMapMax    = field("hdrgm:GainMapMax")
	reGamma         = field("hdrgm:Gamma")
	reOffsetSDR     = field("hdrgm:OffsetSDR")
	reOffsetHDR     = field("hdrgm:OffsetHDR")
	reHDRCapMin     = field("hdrgm:HDRCapacityMin")
	reHDRCapMax     = field("hdrgm:HDRCapacityMax")
	reBaseRendition = field("hdrgm:BaseRendition")

	reDirectory = regexp.MustCompile(`(?s)<GContainer:Directory>(.*?)</GContainer:Directory>`)
	reListItem  = regexp.MustCompile(`<rdf:li\b`)
	reMime      = field("Item:Mime")
	reSemantic  = field("Item:Semantic")
	reLength    = field("Item:Length")
	rePadding   = field("Item:Padding")
)

func getStr(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	if m[1] != "" || strings.HasPrefix(m[0], "<") {
		return m[1], true
	}
	return m[2], true
}

func getFloat(re *regexp.Regexp, s string) (*float64, error) {
	str, ok := getStr(re, s)
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", str, err)
	}
	return &v, nil
}

func getInt(re *regexp.Regexp, s string) (int64, bool, error) {
	str, ok := getStr(re, s)
	if !ok {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0, true, fmt.Errorf("parse %q: %w", str, err)
	}
	return v, true, nil
}

// ParseDescriptor extracts the container fields from an XMP document.
func ParseDescriptor(xmp []byte) (*Descriptor, error) {
	doc := string(xmp)

	dir := reDirectory.FindStringSubmatch(doc)
	if dir == nil {
		return nil, ErrNoDescriptor
	}

	d := &Descriptor{}

	if v, ok := getStr(reMotionPhoto, doc); ok {
		d.MotionPhoto = v == "1"
	}
	if v, ok, err := getInt(reMotionPhotoVer, doc); err != nil {
		return nil, fmt.Errorf("motion photo version: %w", err)
	} else if ok {
		d.MotionPhotoVersion = int(v)
	}
	if v, ok, err := getInt(reMotionTimestamp, doc); err != nil {
		return nil, fmt.Errorf("presentation timestamp: %w", err)
	} else if ok {
		d.PresentationTimestampUs = v
	}

	if v, ok := getStr(reVersion, doc); ok {
		gm, err := parseGainMap(doc)
		if err != nil {
			return nil, err
		}
		gm.Version = v
		d.GainMap = gm
	}

	items := reListItem.FindAllStringIndex(dir[1], -1)
	for i, loc := range items {
		end := len(dir[1])
		if i+1 < len(items) {
			end = items[i+1][0]
		}
		s, err := parseItem(dir[1][loc[0]:end])
		if err != nil {
			return nil, fmt.Errorf("directory item %d: %w", i, err)
		}
		d.Directory = append(d.Directory, s)
	}
	if len(d.Directory) == 0 {
		return nil, fmt.Errorf("%w: empty directory", ErrNoDescriptor)
	}
	if d.Directory[0].Role != RolePrimary {
		return nil, errors.New("first directory item is not Primary")
	}

	return d, nil
}

func parseGainMap(doc string) (*GainMapInfo, error) {
	gm := &GainMapInfo{}

	gmMax, err := getFloat(reGainMapMax, doc)
	if err != nil {
		return nil, fmt.Errorf("GainMapMax: %w", err)
	}
	if gmMax == nil {
		return nil, errors.New("xmp missing GainMapMax")
	}
	gm.GainMapMax = *gmMax

	capMax, err := getFloat(reHDRCapMax, doc)
	if err != nil {
		return nil, fmt.Errorf("HDRCapacityMax: %w", err)
	}
	if capMax == nil {
		return nil, errors.New("xmp missing HDRCapacityMax")
	}
	gm.HDRCapacityMax = *capMax

	for _, f := range []struct {
		re  *regexp.Regexp
		dst **float64
	}{
		{reGainMapMin, &gm.GainMapMin},
		{reGamma, &gm.Gamma},
		{reOffsetSDR, &gm.OffsetSDR},
		{reOffsetHDR, &gm.OffsetHDR},
		{reHDRCapMin, &gm.HDRCapacityMin},
	} {
		v, err := getFloat(f.re, doc)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if v, ok := getStr(reBaseRendition, doc); ok {
		gm.BaseRendition = v
	}

	return gm, nil
}

func parseItem(item string) (Segment, error) {
	var s Segment

	sem, ok := getStr(reSemantic, item)
	if !ok {
		return s, errors.New("missing Item:Semantic")
	}
	role, err := ParseRole(sem)
	if err != nil {
		return s, err
	}
	s.Role = role

	if mime, ok := getStr(reMime, item); ok {
		s.Mime = mime
	}

	l, ok, err := getInt(reLength, item)
	if err != nil {
		return s, fmt.Errorf("Item:Length: %w", err)
	}
	if !ok && role != RolePrimary {
		return s, fmt.Errorf("%s item has no Item:Length", role)
	}
	s.Length = l

	pad, _, err := getInt(rePadding, item)
	if err != nil {
		return s, fmt.Errorf("Item:Padding: %w", err)
	}
	s.Padding = pad

	if s.Length < 0 || s.Padding < 0 {
		return s, fmt.Errorf("%s item has a negative length or padding", role)
	}
	if s.Length > maxItemLength || s.Padding > maxItemLength {
		return s, fmt.Errorf("%s item length or padding exceeds %d", role, int64(maxItemLength))
	}

	return s, nil
}
