package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"github.com/vearutop/motionhdr"
)

func inspectCmd() *cli.Command {
	var (
		in     string
		asJSON bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the container directory of a JPEG and check it against the file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "container file", Required: true, Destination: &in},
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &asJSON},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			data, err := os.ReadFile(filepath.Clean(in))
			if err != nil {
				return err
			}

			r, err := motionhdr.Inspect(data)
			if err != nil {
				return err
			}

			w := cmd.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(r); err != nil {
					return err
				}
			} else {
				writeReport(w, in, r)
			}

			if !r.Valid() {
				return fmt.Errorf("%s: %w", in, motionhdr.ErrLengthMismatch)
			}
			return nil
		},
	}
}

func writeReport(w io.Writer, name string, r *motionhdr.Report) {
	d := r.Descriptor
	_, _ = fmt.Fprintf(w, "%s: %d bytes\n", name, r.Size)
	if d.MotionPhoto {
		_, _ = fmt.Fprintf(w, "motion photo v%d, presentation timestamp %dus\n", d.MotionPhotoVersion, d.PresentationTimestampUs)
	}
	if gm := d.GainMap; gm != nil {
		_, _ = fmt.Fprintf(w, "gain map v%s, max %g, hdr capacity max %g\n", gm.Version, gm.GainMapMax, gm.HDRCapacityMax)
	}

	var offset int64
	for _, s := range d.Directory {
		_, _ = fmt.Fprintf(w, "  %-12s %-16s offset %-10d length %-10d padding %d\n", s.Role, s.Mime, offset, s.Length, s.Padding)
		offset += s.Length + s.Padding
	}

	if r.MPF != nil {
		_, _ = fmt.Fprintf(w, "mpf: primary %d, secondary %d bytes at %d\n", r.MPF.PrimarySize, r.MPF.SecondarySize, r.MPF.SecondaryOffset)
	}
	for _, p := range r.Problems {
		_, _ = fmt.Fprintf(w, "problem: %s\n", p)
	}
}

func splitCmd() *cli.Command {
	var (
		in     string
		outDir string
	)

	return &cli.Command{
		Name:  "split",
		Usage: "Extract the segments of a container into separate files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "container file", Required: true, Destination: &in},
			&cli.StringFlag{Name: "out-dir", Usage: "directory for extracted files", Value: ".", Destination: &outDir},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			res, err := motionhdr.SplitFile(in)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			base := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
			for _, p := range res.Parts {
				name := filepath.Join(outDir, base+"."+strings.ToLower(p.Role.String())+extension(p.Mime))
				if err := os.WriteFile(name, p.Data, 0o644); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.Root().Writer, "%s: %d bytes\n", name, len(p.Data))
			}
			return nil
		},
	}
}

func extension(mime string) string {
	switch mime {
	case motionhdr.MimeJPEG:
		return ".jpg"
	case "video/quicktime":
		return ".mov"
	default:
		return ".mp4"
	}
}
