package motionhdr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// InjectRequest asks an Injector to write a descriptor into an image.
type InjectRequest struct {
	// ImagePath is the JPEG to update in place.
	ImagePath string
	// DescriptorPath is a file holding Descriptor, for tools that read it from disk.
	DescriptorPath string
	// Descriptor is the XMP document.
	Descriptor []byte
	// MPFImages is the number of images to declare in the MPF index, 0 for none.
	MPFImages int
	// Segments is the directory the descriptor declares, in container order.
	Segments []Segment
}

// GainMapLength returns the declared gain map length, or 0 when there is no gain map.
func (r *InjectRequest) GainMapLength() int64 {
	for _, s := range r.Segments {
		if s.Role == RoleGainMap {
			return s.Length
		}
	}
	return 0
}

// Injector applies a descriptor to an image in place.
// Repeated injection of same-sized descriptors must produce same-sized files
// for the fixed-point loop to converge.
type Injector interface {
	Inject(ctx context.Context, req *InjectRequest) error
}

// InjectorFunc adapts a function to the Injector interface.
type InjectorFunc func(ctx context.Context, req *InjectRequest) error

// Inject calls f.
func (f InjectorFunc) Inject(ctx context.Context, req *InjectRequest) error {
	return f(ctx, req)
}

// NativeInjector splices the XMP packet (and the MPF index for gain map containers)
// directly into the JPEG header without an external tool.
type NativeInjector struct{}

// Inject implements Injector.
func (NativeInjector) Inject(ctx context.Context, req *InjectRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Clean(req.ImagePath))
	if err != nil {
		return err
	}

	var gainMapLen int64
	if req.MPFImages > 0 {
		gainMapLen = req.GainMapLength()
	}

	out, err := spliceDescriptor(data, req.Descriptor, gainMapLen)
	if err != nil {
		return fmt.Errorf("splice descriptor into %s: %w", req.ImagePath, err)
	}

	return writeFileAtomic(req.ImagePath, out)
}

// writeFileAtomic replaces path with data through a sibling temporary file.
func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
