// Package motionhdr assembles Google Motion Photo and UltraHDR gain map containers.
//
// A container is the primary JPEG carrying an XMP GContainer directory, followed by the
// raw bytes of the gain map JPEG and/or the video clip. The directory declares the
// length of every segment, including the primary image itself, so the descriptor is
// injected repeatedly until the declared primary length matches the measured one.
package motionhdr
