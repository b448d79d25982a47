package motionhdr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AssembleMotionPhoto writes a motion photo made of the primary JPEG and the video to out.
func AssembleMotionPhoto(ctx context.Context, primary, video, out string, opts ...func(o *Options)) (*Result, error) {
	return Assemble(ctx, &Job{Variant: VariantMotionPhoto, Primary: primary, Video: video, Output: out}, opts...)
}

// AssembleUltraHDR writes an UltraHDR JPEG made of the SDR primary and the gain map to out.
func AssembleUltraHDR(ctx context.Context, primary, gainMap, out string, opts ...func(o *Options)) (*Result, error) {
	return Assemble(ctx, &Job{Variant: VariantUltraHDR, Primary: primary, GainMap: gainMap, Output: out}, opts...)
}

// AssembleUltraHDRMotionPhoto writes an UltraHDR motion photo (primary, gain map, video) to out.
func AssembleUltraHDRMotionPhoto(ctx context.Context, primary, gainMap, video, out string, opts ...func(o *Options)) (*Result, error) {
	return Assemble(ctx, &Job{Variant: VariantUltraHDRMotionPhoto, Primary: primary, GainMap: gainMap, Video: video, Output: out}, opts...)
}

// Assemble builds the container described by job.
//
// Inputs are validated before anything is written. The primary image is copied to a
// per-run temporary directory, the descriptor is converged there, the remaining
// segments are appended and the declared lengths are checked against the file. Only
// then is the container moved to job.Output, replacing any previous file. On error
// job.Output is left as it was and the temporary directory is removed.
func Assemble(ctx context.Context, job *Job, opts ...func(o *Options)) (*Result, error) {
	if job == nil {
		return nil, errors.New("job is nil")
	}
	o := newOptions(opts)
	o.Params = o.Params.Merge(job.Params)

	l, err := job.Variant.layout()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := o.Logger.With(
		zap.String("run_id", runID),
		zap.Stringer("variant", job.Variant),
	)

	out, err := resolveOutput(job.Primary, job.Output)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("output", out))

	segs, err := job.segments(l, o)
	if err != nil {
		return nil, err
	}

	if _, err := checkInput(job.Primary, l.checkJPEG); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(segs))
	for i, s := range segs {
		size, err := checkInput(s.Path, l.checkJPEG && s.Role == RoleGainMap)
		if err != nil {
			return nil, err
		}
		segs[i].Length = size
		paths = append(paths, s.Path)
	}

	tmpDir, err := os.MkdirTemp(o.TempDir, tempDirPattern+runID[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Warn("failed to remove temp dir", zap.String("path", tmpDir), zap.Error(err))
		}
	}()

	tmpPrimary := filepath.Join(tmpDir, primaryTempName)
	if _, err := copyFile(job.Primary, tmpPrimary); err != nil {
		return nil, fmt.Errorf("copy primary image: %w", err)
	}

	logger.Info("injecting descriptor", zap.Int("segments", len(segs)+1))

	primaryLen, passes, err := converge(ctx, tmpPrimary, filepath.Join(tmpDir, descriptorName), job.Variant, segs, o)
	if err != nil {
		return nil, err
	}

	logger.Info("descriptor converged", zap.Int64("primary_length", primaryLen), zap.Int("passes", passes))

	appended, err := AppendSegments(tmpPrimary, paths...)
	if err != nil {
		return nil, err
	}

	logger.Info("segments appended", zap.Int64("bytes", appended))

	size, err := verifyContainer(tmpPrimary, primaryLen, segs)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := Finalize(tmpPrimary, out); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:         runID,
		Variant:       job.Variant,
		Output:        out,
		PrimaryLength: primaryLen,
		Segments:      append([]Segment{{Role: RolePrimary, Mime: MimeJPEG, Length: primaryLen}}, segs...),
		Appended:      appended,
		Size:          size,
		Passes:        passes,
	}

	logger.Info("container written", zap.Int64("size", size))

	if o.OnResult != nil {
		o.OnResult(res)
	}

	return res, nil
}

// segments lists the appended segments of the job in container order, without lengths.
func (job *Job) segments(l layout, o Options) ([]Segment, error) {
	if job.Primary == "" {
		return nil, fmt.Errorf("%w: primary image path is empty", ErrInvalidInput)
	}
	if job.Output == "" {
		return nil, fmt.Errorf("%w: output path is empty", ErrInvalidInput)
	}

	var segs []Segment
	for _, r := range l.roles {
		switch r {
		case RoleGainMap:
			if job.GainMap == "" {
				return nil, fmt.Errorf("%w: %s container requires a gain map", ErrInvalidInput, l.name)
			}
			segs = append(segs, Segment{Role: r, Mime: o.GainMapMime, Path: job.GainMap})
		case RoleMotionPhoto:
			if job.Video == "" {
				return nil, fmt.Errorf("%w: %s container requires a video", ErrInvalidInput, l.name)
			}
			segs = append(segs, Segment{Role: r, Mime: o.VideoMime, Path: job.Video})
		}
	}
	return segs, nil
}

// resolveOutput places the output inside out when out is an existing directory.
func resolveOutput(primary, out string) (string, error) {
	if out == "" {
		return "", fmt.Errorf("%w: output path is empty", ErrInvalidInput)
	}
	if fi, err := os.Stat(out); err == nil && fi.IsDir() {
		out = filepath.Join(out, filepath.Base(primary))
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// verifyContainer reads the descriptor back from the assembled file and checks that every
// declared length matches the bytes on disk. It returns the container size.
func verifyContainer(path string, primaryLen int64, segs []Segment) (int64, error) {
	d, err := ReadDescriptorFile(path)
	if err != nil {
		return 0, fmt.Errorf("read back descriptor: %w", err)
	}

	size, err := fileSize(path)
	if err != nil {
		return 0, err
	}

	want := append([]Segment{{Role: RolePrimary, Length: primaryLen}}, segs...)
	if len(d.Directory) != len(want) {
		return 0, fmt.Errorf("%w: descriptor lists %d segments, expected %d", ErrLengthMismatch, len(d.Directory), len(want))
	}
	for i, s := range want {
		got := d.Directory[i]
		if got.Role != s.Role || got.Length != s.Length {
			return 0, fmt.Errorf("%w: segment %d declared %s/%d, physical %s/%d",
				ErrLengthMismatch, i, got.Role, got.Length, s.Role, s.Length)
		}
	}
	if total := d.Total(); total != size {
		return 0, fmt.Errorf("%w: declared total %d, file size %d", ErrLengthMismatch, total, size)
	}

	return size, nil
}
