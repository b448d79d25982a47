package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"github.com/vearutop/motionhdr"
	"github.com/vearutop/motionhdr/exiftool"
	"go.uber.org/zap"
)

// injector returns the configured descriptor injector.
func injector(ctx context.Context) (motionhdr.Injector, error) {
	switch injectorName {
	case injectorNative, "":
		return motionhdr.NativeInjector{}, nil
	case injectorExifTool:
		tool := exiftool.New(exiftool.Config{Path: exiftoolPath, Timeout: toolTimeout, Logger: logger})
		v, err := tool.Version(ctx)
		if err != nil {
			return nil, err
		}
		logger.Debug("using exiftool", zap.String("path", exiftoolPath), zap.String("version", v))
		return tool, nil
	default:
		return nil, fmt.Errorf("unknown injector %q, use %s or %s", injectorName, injectorNative, injectorExifTool)
	}
}

// assembleOptions collects the global settings into assembly options.
func assembleOptions(ctx context.Context) ([]func(o *motionhdr.Options), error) {
	inj, err := injector(ctx)
	if err != nil {
		return nil, err
	}
	return []func(o *motionhdr.Options){
		motionhdr.WithLogger(logger),
		motionhdr.WithInjector(inj),
		func(o *motionhdr.Options) {
			o.MaxPasses = maxPasses
			o.TempDir = tmpDir
			o.VideoMime = videoMime
		},
	}, nil
}

type assembleFlags struct {
	primary     string
	gainMap     string
	video       string
	out         string
	timestampUs int64
	asJSON      bool
}

func (f *assembleFlags) flags(v motionhdr.Variant) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "primary", Aliases: []string{"p"}, Usage: "primary JPEG image", Required: true, Destination: &f.primary},
		&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file or existing directory", Required: true, Destination: &f.out},
		&cli.BoolFlag{Name: "json", Usage: "print the result as JSON", Destination: &f.asJSON},
	}
	for _, r := range v.Roles() {
		switch r {
		case motionhdr.RoleGainMap:
			flags = append(flags,
				&cli.StringFlag{Name: "gainmap", Aliases: []string{"g"}, Usage: "gain map JPEG image", Required: true, Destination: &f.gainMap},
			)
			flags = append(flags, gainMapFlags()...)
		case motionhdr.RoleMotionPhoto:
			flags = append(flags,
				&cli.StringFlag{Name: "video", Usage: "video file", Required: true, Destination: &f.video},
			)
		}
	}
	if v == motionhdr.VariantMotionPhoto {
		flags = append(flags, &cli.Int64Flag{
			Name:        "timestamp-us",
			Usage:       "motion photo presentation timestamp in microseconds",
			Destination: &f.timestampUs,
		})
	}
	return flags
}

func assembleCmd(v motionhdr.Variant, usage string) *cli.Command {
	var f assembleFlags

	return &cli.Command{
		Name:  v.String(),
		Usage: usage,
		Flags: f.flags(v),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts, err := assembleOptions(ctx)
			if err != nil {
				return err
			}
			opts = append(opts, motionhdr.WithPresentationTimestamp(f.timestampUs))

			job := &motionhdr.Job{
				Variant: v,
				Primary: f.primary,
				GainMap: f.gainMap,
				Video:   f.video,
				Output:  f.out,
			}
			if v != motionhdr.VariantMotionPhoto {
				job.Params = gainMapParams(cmd)
			}

			res, err := motionhdr.Assemble(ctx, job, opts...)
			if err != nil {
				return err
			}

			return printResult(cmd, res, f.asJSON)
		},
	}
}

func motionCmd() *cli.Command {
	return assembleCmd(motionhdr.VariantMotionPhoto, "Append a video to a JPEG as a motion photo")
}

func hdrCmd() *cli.Command {
	return assembleCmd(motionhdr.VariantUltraHDR, "Append a gain map to a JPEG as an UltraHDR image")
}

func combinedCmd() *cli.Command {
	return assembleCmd(motionhdr.VariantUltraHDRMotionPhoto, "Append a gain map and a video to a JPEG as an UltraHDR motion photo")
}

func printResult(cmd *cli.Command, res *motionhdr.Result, asJSON bool) error {
	w := cmd.Root().Writer
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err := fmt.Fprintf(w, "%s: %d bytes, primary %d bytes, %d passes\n", res.Output, res.Size, res.PrimaryLength, res.Passes)
	return err
}
