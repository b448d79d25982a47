// Package exiftool injects container descriptors with the ExifTool command line utility.
package exiftool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/vearutop/motionhdr"
	"go.uber.org/zap"
)

// Default configuration values.
const (
	DefaultPath         = "exiftool"
	DefaultTimeout      = 60 * time.Second
	DefaultCheckTimeout = 5 * time.Second
)

var (
	// ErrToolFailed is wrapped by every ToolError.
	ErrToolFailed = errors.New("exiftool failed")
	// ErrNotFound means the executable could not be located.
	ErrNotFound = errors.New("exiftool not found")
)

// ToolError describes a failed ExifTool run.
type ToolError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("exiftool failed (exit code %d)", e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Stderr != "" {
		msg += ", stderr: " + e.Stderr
	}
	return msg
}

// Unwrap exposes ErrToolFailed and the underlying cause.
func (e *ToolError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrToolFailed}
	}
	return []error{ErrToolFailed, e.Err}
}

// Config configures the tool.
type Config struct {
	// Path is the executable, "exiftool" from PATH by default.
	Path string `yaml:"path"`
	// Timeout bounds a single run, 60s by default.
	Timeout time.Duration `yaml:"timeout"`
	// Logger receives the command lines, zap.NewNop by default.
	Logger *zap.Logger `yaml:"-"`
}

// Tool runs ExifTool. It implements motionhdr.Injector.
type Tool struct {
	cfg Config
}

var _ motionhdr.Injector = (*Tool)(nil)

// New creates a tool, filling defaults.
func New(cfg Config) *Tool {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Tool{cfg: cfg}
}

// Args builds the ExifTool arguments of an injection request.
func Args(req *motionhdr.InjectRequest) []string {
	args := []string{"-overwrite_original", "-n", "-xmp<=" + req.DescriptorPath}
	if req.MPFImages > 0 {
		args = append(args, "-MPFVersion=0100", "-NumberOfImages="+strconv.Itoa(req.MPFImages))
	}
	return append(args, req.ImagePath)
}

// Inject writes the descriptor file of req into the image in place.
func (t *Tool) Inject(ctx context.Context, req *motionhdr.InjectRequest) error {
	if req.DescriptorPath == "" {
		return errors.New("exiftool reads the descriptor from a file, DescriptorPath is empty")
	}
	_, err := t.run(ctx, t.cfg.Timeout, Args(req)...)
	return err
}

// Version returns the output of "exiftool -ver".
func (t *Tool) Version(ctx context.Context) (string, error) {
	out, err := t.run(ctx, DefaultCheckTimeout, "-ver")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Available checks that the executable runs.
func (t *Tool) Available(ctx context.Context) error {
	_, err := t.Version(ctx)
	return err
}

// run executes the tool. Any output on stderr is a failure, even with a zero exit code.
func (t *Tool) run(ctx context.Context, timeout time.Duration, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // The executable path is configured by the operator.
	cmd := exec.CommandContext(runCtx, t.cfg.Path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	t.cfg.Logger.Debug("running exiftool", zap.String("path", t.cfg.Path), zap.Strings("args", args))

	err := cmd.Run()
	if err != nil {
		var execErr *exec.Error
		if (errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound)) || errors.Is(err, fs.ErrNotExist) {
			return "", &ToolError{Args: args, ExitCode: -1, Err: ErrNotFound}
		}
		if runCtx.Err() != nil {
			return "", &ToolError{Args: args, ExitCode: -1, Stderr: strings.TrimSpace(stderr.String()), Err: runCtx.Err()}
		}
		te := &ToolError{Args: args, ExitCode: -1, Stderr: strings.TrimSpace(stderr.String()), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			te.ExitCode = exitErr.ExitCode()
			te.Err = nil
		}
		return "", te
	}

	if s := strings.TrimSpace(stderr.String()); s != "" {
		return "", &ToolError{Args: args, Stderr: s}
	}

	return stdout.String(), nil
}
