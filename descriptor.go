package motionhdr

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// BuildDescriptor renders the XMP document of a container. Segments may come in any order,
// they are emitted in role order. The result does not depend on anything but the arguments.
func BuildDescriptor(v Variant, segs []Segment, p GainMapParams) ([]byte, error) {
	return buildDescriptor(v, segs, p, 0)
}

func buildDescriptor(v Variant, segs []Segment, p GainMapParams, timestampUs int64) ([]byte, error) {
	l, err := v.layout()
	if err != nil {
		return nil, err
	}

	ordered, err := orderSegments(l, segs)
	if err != nil {
		return nil, err
	}

	var hdr resolvedParams
	if l.gainMap {
		if hdr, err = p.resolve(l.defaults); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	var b strings.Builder
	line := func(indent int, s string) {
		b.WriteString(strings.Repeat(" ", indent))
		b.WriteString(s)
		b.WriteByte('\n')
	}
	elem := func(indent int, name, value string) {
		line(indent, "<"+name+">"+value+"</"+name+">")
	}

	line(0, `<x:xmpmeta xmlns:x="`+nsX+`" x:xmptk="`+xmpToolkit+`">`)
	line(1, `<rdf:RDF xmlns:rdf="`+nsRDF+`">`)
	line(2, `<rdf:Description rdf:about=""`)

	ns := make([]string, 0, 4)
	if l.camera {
		ns = append(ns, `xmlns:GCamera="`+nsGCamera+`"`)
	}
	ns = append(ns, `xmlns:GContainer="`+nsGContainer+`"`, `xmlns:Item="`+nsItem+`"`)
	if l.gainMap {
		ns = append(ns, `xmlns:hdrgm="`+nsHDRGM+`"`)
	}
	for i, decl := range ns {
		if i == len(ns)-1 {
			decl += ">"
		}
		line(4, decl)
	}

	if l.camera {
		elem(3, "GCamera:MotionPhoto", "1")
		elem(3, "GCamera:MotionPhotoVersion", strconv.Itoa(motionPhotoVersion))
		if l.timestamp {
			elem(3, "GCamera:MotionPhotoPresentationTimestampUs", strconv.FormatInt(timestampUs, 10))
		}
	}

	if l.gainMap {
		elem(3, "hdrgm:Version", gainMapVersion)
		elem(3, "hdrgm:GainMapMin", formatFloat(hdr.GainMapMin))
		elem(3, "hdrgm:GainMapMax", formatFloat(hdr.GainMapMax))
		elem(3, "hdrgm:Gamma", formatFloat(hdr.Gamma))
		if l.offsets {
			elem(3, "hdrgm:OffsetSDR", formatFloat(gainMapOffset))
			elem(3, "hdrgm:OffsetHDR", formatFloat(gainMapOffset))
		}
		if l.capacityMin {
			elem(3, "hdrgm:HDRCapacityMin", formatFloat(hdr.HDRCapacityMin))
		}
		elem(3, "hdrgm:HDRCapacityMax", formatFloat(hdr.HDRCapacityMax))
		elem(3, "hdrgm:BaseRendition", baseRendition)
	}

	line(3, "<GContainer:Directory>")
	line(4, "<rdf:Seq>")
	for _, s := range ordered {
		line(5, `<rdf:li rdf:parseType="Resource">`)
		elem(6, "Item:Mime", escapeText(s.Mime))
		elem(6, "Item:Semantic", s.Role.String())
		elem(6, "Item:Length", strconv.FormatInt(s.Length, 10))
		if l.padding {
			elem(6, "Item:Padding", strconv.FormatInt(s.Padding, 10))
		}
		line(5, "</rdf:li>")
	}
	line(4, "</rdf:Seq>")
	line(3, "</GContainer:Directory>")
	line(2, "</rdf:Description>")
	line(1, "</rdf:RDF>")
	b.WriteString("</x:xmpmeta>")

	return []byte(b.String()), nil
}

// orderSegments checks that segs holds exactly the roles of the variant and sorts them.
func orderSegments(l layout, segs []Segment) ([]Segment, error) {
	allowed := make(map[Role]bool, len(l.roles))
	for _, r := range l.roles {
		allowed[r] = true
	}

	seen := make(map[Role]bool, len(segs))
	ordered := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if !allowed[s.Role] {
			return nil, fmt.Errorf("%w: %s container has no %s segment", ErrInvalidInput, l.name, s.Role)
		}
		if seen[s.Role] {
			return nil, fmt.Errorf("%w: duplicate %s segment", ErrInvalidInput, s.Role)
		}
		if s.Length < 0 {
			return nil, fmt.Errorf("%w: %s segment length is negative: %d", ErrInvalidInput, s.Role, s.Length)
		}
		seen[s.Role] = true
		if s.Mime == "" {
			s.Mime = MimeJPEG
			if s.Role == RoleMotionPhoto {
				s.Mime = MimeMP4
			}
		}
		ordered = append(ordered, s)
	}
	for _, r := range l.roles {
		if !seen[r] {
			return nil, fmt.Errorf("%w: %s container requires a %s segment", ErrInvalidInput, l.name, r)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Role < ordered[j].Role })
	return ordered, nil
}

// formatFloat renders v in the shortest form that parses back to the same value,
// keeping a fractional part on integral values (2 becomes "2.0").
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func escapeText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
