package motionhdr

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/vearutop/motionhdr/internal/jpegx"
)

// checkInput returns the size of a regular file, optionally requiring the JPEG signature.
func checkInput(path string, requireJPEG bool) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("%w: file not found: %s", ErrInvalidInput, path)
		}
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidInput, path, err)
	}
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("%w: not a regular file: %s", ErrInvalidInput, path)
	}
	if requireJPEG {
		ok, err := jpegx.FileHasSignature(path)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidInput, path, err)
		}
		if !ok {
			return 0, fmt.Errorf("%w: not a JPEG file: %s", ErrInvalidInput, path)
		}
	}
	return fi.Size(), nil
}

// copyFile copies src to a new file dst and returns the number of bytes written.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return n, err
	}
	return n, out.Close()
}

// AppendSegments streams the files at paths, in order and without separators, to the end
// of dst. All paths are checked before dst is opened. Every file must be copied in full,
// the total number of appended bytes is returned.
func AppendSegments(dst string, paths ...string) (int64, error) {
	sizes := make([]int64, len(paths))
	for i, p := range paths {
		size, err := checkInput(p, false)
		if err != nil {
			return 0, err
		}
		sizes[i] = size
	}

	out, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return 0, err
	}

	var total int64
	for i, p := range paths {
		n, err := appendFile(out, p)
		total += n
		if err != nil {
			_ = out.Close()
			return total, fmt.Errorf("append %s: %w", p, err)
		}
		if n != sizes[i] {
			_ = out.Close()
			return total, fmt.Errorf("%w: %s: appended %d bytes, expected %d", ErrLengthMismatch, p, n, sizes[i])
		}
	}

	if err := out.Sync(); err != nil {
		_ = out.Close()
		return total, err
	}
	return total, out.Close()
}

func appendFile(w io.Writer, path string) (int64, error) {
	in, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, err
	}
	defer in.Close()

	return io.Copy(w, in)
}

// Finalize moves the assembled container at tmpPath to outPath, replacing any existing file.
// When a rename is impossible across devices, the file is copied next to outPath first
// and renamed from there, so outPath never holds a partial container. On failure outPath
// keeps its previous content.
func Finalize(tmpPath, outPath string) error {
	err := os.Rename(tmpPath, outPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("move container into place: %w", err)
	}

	partial := filepath.Join(filepath.Dir(outPath), "."+filepath.Base(outPath)+".partial")
	_ = os.Remove(partial)
	if _, err := copyFile(tmpPath, partial); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("copy container next to output: %w", err)
	}
	if err := os.Rename(partial, outPath); err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("move container into place: %w", err)
	}
	return os.Remove(tmpPath)
}
