package motionhdr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Converge injects the descriptor of variant v into the image at imagePath until the
// declared Primary length equals the image size. others are the appended segments.
// It returns the converged Primary length and the number of injections made.
//
// The first pass declares the current image size. Each following pass declares the size
// measured after the previous injection. The loop stops on the first pass whose injection
// leaves the size unchanged, or fails with ErrNotConverged after Options.MaxPasses.
func Converge(ctx context.Context, imagePath string, v Variant, others []Segment, opts ...func(o *Options)) (int64, int, error) {
	o := newOptions(opts)

	dir, err := os.MkdirTemp(o.TempDir, tempDirPattern)
	if err != nil {
		return 0, 0, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			o.Logger.Warn("failed to remove temp dir", zap.String("path", dir), zap.Error(err))
		}
	}()

	return converge(ctx, imagePath, filepath.Join(dir, descriptorName), v, others, o)
}

func converge(ctx context.Context, imagePath, descriptorPath string, v Variant, others []Segment, o Options) (int64, int, error) {
	declared, err := fileSize(imagePath)
	if err != nil {
		return 0, 0, err
	}

	for pass := 1; pass <= o.MaxPasses; pass++ {
		segs := make([]Segment, 0, len(others)+1)
		segs = append(segs, Segment{Role: RolePrimary, Mime: MimeJPEG, Length: declared})
		segs = append(segs, others...)

		desc, err := buildDescriptor(v, segs, o.Params, o.PresentationTimestampUs)
		if err != nil {
			return 0, pass - 1, fmt.Errorf("build descriptor: %w", err)
		}
		if err := os.WriteFile(descriptorPath, desc, 0o600); err != nil {
			return 0, pass - 1, fmt.Errorf("write descriptor: %w", err)
		}

		ordered, err := orderSegments(layouts[v], segs)
		if err != nil {
			return 0, pass - 1, err
		}

		req := &InjectRequest{
			ImagePath:      imagePath,
			DescriptorPath: descriptorPath,
			Descriptor:     desc,
			MPFImages:      v.MPFImages(),
			Segments:       ordered,
		}
		if err := o.Injector.Inject(ctx, req); err != nil {
			return 0, pass, fmt.Errorf("inject descriptor (pass %d): %w", pass, err)
		}

		measured, err := fileSize(imagePath)
		if err != nil {
			return 0, pass, err
		}

		o.Logger.Debug("descriptor injected",
			zap.Int("pass", pass),
			zap.Int64("declared", declared),
			zap.Int64("measured", measured),
		)

		if measured == declared {
			return measured, pass, nil
		}
		declared = measured
	}

	return 0, o.MaxPasses, fmt.Errorf("%w after %d passes, last primary size %d", ErrNotConverged, o.MaxPasses, declared)
}

func fileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
