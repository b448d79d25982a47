package motionhdr

import "time"

const (
	xmpNamespace = "http://ns.adobe.com/xap/1.0/"

	nsX          = "adobe:ns:meta/"
	nsRDF        = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsGCamera    = "http://ns.google.com/photos/1.0/camera/"
	nsGContainer = "http://ns.google.com/photos/1.0/container/"
	nsItem       = "http://ns.google.com/photos/1.0/container/item/"
	nsHDRGM      = "http://ns.adobe.com/hdr-gain-map/1.0/"

	xmpToolkit = "Adobe XMP Core 5.1.0"
)

const (
	// MimeJPEG is the default mime type of the primary image and the gain map.
	MimeJPEG = "image/jpeg"
	// MimeMP4 is the default mime type of the motion photo video.
	MimeMP4 = "video/mp4"
)

const (
	gainMapVersion     = "1.0"
	gainMapOffset      = 1.0 / 64.0
	baseRendition      = "SDR"
	motionPhotoVersion = 1
	mpfVersionTag      = "0100"
)

const (
	defaultMaxPasses = 4
	minPasses        = 2
	defaultToolWait  = 60 * time.Second
	tempDirPattern   = "motionhdr-"
	primaryTempName  = "primary.jpg"
	descriptorName   = "descriptor.xmp"
)
