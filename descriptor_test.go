package motionhdr_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/motionhdr"
)

const motionGolden = `<x:xmpmeta xmlns:x="adobe:ns:meta/" x:xmptk="Adobe XMP Core 5.1.0">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:GCamera="http://ns.google.com/photos/1.0/camera/"
    xmlns:GContainer="http://ns.google.com/photos/1.0/container/"
    xmlns:Item="http://ns.google.com/photos/1.0/container/item/">
   <GCamera:MotionPhoto>1</GCamera:MotionPhoto>
   <GCamera:MotionPhotoVersion>1</GCamera:MotionPhotoVersion>
   <GCamera:MotionPhotoPresentationTimestampUs>0</GCamera:MotionPhotoPresentationTimestampUs>
   <GContainer:Directory>
    <rdf:Seq>
     <rdf:li rdf:parseType="Resource">
      <Item:Mime>image/jpeg</Item:Mime>
      <Item:Semantic>Primary</Item:Semantic>
      <Item:Length>1000</Item:Length>
      <Item:Padding>0</Item:Padding>
     </rdf:li>
     <rdf:li rdf:parseType="Resource">
      <Item:Mime>video/mp4</Item:Mime>
      <Item:Semantic>MotionPhoto</Item:Semantic>
      <Item:Length>500</Item:Length>
      <Item:Padding>0</Item:Padding>
     </rdf:li>
    </rdf:Seq>
   </GContainer:Directory>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>`

func TestBuildDescriptor_motion(t *testing.T) {
	xmp, err := motionhdr.BuildDescriptor(motionhdr.VariantMotionPhoto, []motionhdr.Segment{
		{Role: motionhdr.RolePrimary, Length: 1000},
		{Role: motionhdr.RoleMotionPhoto, Length: 500},
	}, motionhdr.GainMapParams{})
	require.NoError(t, err)
	assert.Equal(t, motionGolden, string(xmp))
}

func TestBuildDescriptor_ultraHDR(t *testing.T) {
	xmp, err := motionhdr.BuildDescriptor(motionhdr.VariantUltraHDR, []motionhdr.Segment{
		{Role: motionhdr.RolePrimary, Length: 1234},
		{Role: motionhdr.RoleGainMap, Length: 300},
	}, motionhdr.GainMapParams{})
	require.NoError(t, err)

	s := string(xmp)
	assert.NotContains(t, s, "GCamera")
	assert.Contains(t, s, "    xmlns:hdrgm=\"http://ns.adobe.com/hdr-gain-map/1.0/\">\n")
	assert.Contains(t, s, "   <hdrgm:Version>1.0</hdrgm:Version>\n")
	assert.Contains(t, s, "   <hdrgm:GainMapMin>0.0</hdrgm:GainMapMin>\n")
	assert.Contains(t, s, "   <hdrgm:GainMapMax>1.0</hdrgm:GainMapMax>\n")
	assert.Contains(t, s, "   <hdrgm:Gamma>1.0</hdrgm:Gamma>\n")
	assert.Contains(t, s, "   <hdrgm:OffsetSDR>0.015625</hdrgm:OffsetSDR>\n")
	assert.Contains(t, s, "   <hdrgm:OffsetHDR>0.015625</hdrgm:OffsetHDR>\n")
	assert.Contains(t, s, "   <hdrgm:HDRCapacityMin>0.0</hdrgm:HDRCapacityMin>\n")
	assert.Contains(t, s, "   <hdrgm:HDRCapacityMax>2.0</hdrgm:HDRCapacityMax>\n")
	assert.Contains(t, s, "   <hdrgm:BaseRendition>SDR</hdrgm:BaseRendition>\n")
	assert.Contains(t, s, "      <Item:Length>1234</Item:Length>\n")
	assert.Contains(t, s, "      <Item:Length>300</Item:Length>\n")
	assert.Contains(t, s, "      <Item:Padding>0</Item:Padding>\n")
}

func TestBuildDescriptor_combined(t *testing.T) {
	// Segments are given out of order on purpose.
	xmp, err := motionhdr.BuildDescriptor(motionhdr.VariantUltraHDRMotionPhoto, []motionhdr.Segment{
		{Role: motionhdr.RoleMotionPhoto, Length: 400},
		{Role: motionhdr.RolePrimary, Length: 2000},
		{Role: motionhdr.RoleGainMap, Length: 200},
	}, motionhdr.GainMapParams{})
	require.NoError(t, err)

	s := string(xmp)
	assert.Contains(t, s, "<GCamera:MotionPhoto>1</GCamera:MotionPhoto>")
	assert.Contains(t, s, "<hdrgm:GainMapMax>2.1</hdrgm:GainMapMax>")
	assert.Contains(t, s, "<hdrgm:HDRCapacityMax>2.1</hdrgm:HDRCapacityMax>")
	assert.NotContains(t, s, "MotionPhotoPresentationTimestampUs")
	assert.NotContains(t, s, "OffsetSDR")
	assert.NotContains(t, s, "HDRCapacityMin")
	assert.NotContains(t, s, "Item:Padding")

	p := strings.Index(s, "<Item:Semantic>Primary</Item:Semantic>")
	g := strings.Index(s, "<Item:Semantic>GainMap</Item:Semantic>")
	m := strings.Index(s, "<Item:Semantic>MotionPhoto</Item:Semantic>")
	require.True(t, p > 0 && g > 0 && m > 0)
	assert.Less(t, p, g)
	assert.Less(t, g, m)
}

func TestBuildDescriptor_params(t *testing.T) {
	xmp, err := motionhdr.BuildDescriptor(motionhdr.VariantUltraHDR, []motionhdr.Segment{
		{Role: motionhdr.RolePrimary, Length: 1},
		{Role: motionhdr.RoleGainMap, Length: 1},
	}, motionhdr.GainMapParams{GainMapMax: motionhdr.Float(3.5), HDRCapacityMax: motionhdr.Float(4)})
	require.NoError(t, err)

	assert.Contains(t, string(xmp), "<hdrgm:GainMapMax>3.5</hdrgm:GainMapMax>")
	assert.Contains(t, string(xmp), "<hdrgm:HDRCapacityMax>4.0</hdrgm:HDRCapacityMax>")
	assert.Contains(t, string(xmp), "<hdrgm:Gamma>1.0</hdrgm:Gamma>")
}

func TestBuildDescriptor_deterministic(t *testing.T) {
	segs := []motionhdr.Segment{
		{Role: motionhdr.RolePrimary, Length: 77},
		{Role: motionhdr.RoleGainMap, Length: 88},
		{Role: motionhdr.RoleMotionPhoto, Length: 99},
	}
	a, err := motionhdr.BuildDescriptor(motionhdr.VariantUltraHDRMotionPhoto, segs, motionhdr.GainMapParams{})
	require.NoError(t, err)
	b, err := motionhdr.BuildDescriptor(motionhdr.VariantUltraHDRMotionPhoto, segs, motionhdr.GainMapParams{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildDescriptor_errors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		variant motionhdr.Variant
		segs    []motionhdr.Segment
		params  motionhdr.GainMapParams
	}{
		{
			name:    "missing video",
			variant: motionhdr.VariantMotionPhoto,
			segs:    []motionhdr.Segment{{Role: motionhdr.RolePrimary, Length: 1}},
		},
		{
			name:    "gain map in motion photo",
			variant: motionhdr.VariantMotionPhoto,
			segs: []motionhdr.Segment{
				{Role: motionhdr.RolePrimary, Length: 1},
				{Role: motionhdr.RoleGainMap, Length: 1},
				{Role: motionhdr.RoleMotionPhoto, Length: 1},
			},
		},
		{
			name:    "duplicate role",
			variant: motionhdr.VariantUltraHDR,
			segs: []motionhdr.Segment{
				{Role: motionhdr.RolePrimary, Length: 1},
				{Role: motionhdr.RoleGainMap, Length: 1},
				{Role: motionhdr.RoleGainMap, Length: 1},
			},
		},
		{
			name:    "negative length",
			variant: motionhdr.VariantUltraHDR,
			segs: []motionhdr.Segment{
				{Role: motionhdr.RolePrimary, Length: 1},
				{Role: motionhdr.RoleGainMap, Length: -1},
			},
		},
		{
			name:    "nan parameter",
			variant: motionhdr.VariantUltraHDR,
			segs: []motionhdr.Segment{
				{Role: motionhdr.RolePrimary, Length: 1},
				{Role: motionhdr.RoleGainMap, Length: 1},
			},
			params: motionhdr.GainMapParams{Gamma: motionhdr.Float(math.NaN())},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := motionhdr.BuildDescriptor(tc.variant, tc.segs, tc.params)
			assert.ErrorIs(t, err, motionhdr.ErrInvalidInput)
		})
	}

	_, err := motionhdr.BuildDescriptor(motionhdr.Variant(42), nil, motionhdr.GainMapParams{})
	assert.Error(t, err)
}

func TestParseVariant(t *testing.T) {
	for name, want := range map[string]motionhdr.Variant{
		"motion":   motionhdr.VariantMotionPhoto,
		"HDR":      motionhdr.VariantUltraHDR,
		"combined": motionhdr.VariantUltraHDRMotionPhoto,
	} {
		v, err := motionhdr.ParseVariant(name)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	_, err := motionhdr.ParseVariant("gif")
	assert.Error(t, err)

	assert.Equal(t, []motionhdr.Role{motionhdr.RolePrimary, motionhdr.RoleGainMap, motionhdr.RoleMotionPhoto},
		motionhdr.VariantUltraHDRMotionPhoto.Roles())
	assert.Equal(t, 0, motionhdr.VariantMotionPhoto.MPFImages())
	assert.Equal(t, 2, motionhdr.VariantUltraHDR.MPFImages())
}
