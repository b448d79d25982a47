package main

import (
	"time"

	"github.com/urfave/cli/v3"
	"github.com/vearutop/motionhdr"
)

const (
	injectorNative   = "native"
	injectorExifTool = "exiftool"
)

var (
	configFile   string
	exiftoolPath string
	injectorName string
	toolTimeout  time.Duration
	maxPasses    int
	tmpDir       string
	videoMime    string
	logLevel     string
	logFormat    string

	// Gain map parameters from the config file, flags take precedence.
	configParams motionhdr.GainMapParams
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Value:       configPath(),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "injector",
			Usage:       "descriptor injector (native, exiftool)",
			Value:       injectorNative,
			Destination: &injectorName,
		},
		&cli.StringFlag{
			Name:        "exiftool",
			Usage:       "path to the exiftool executable",
			Value:       "exiftool",
			Destination: &exiftoolPath,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "timeout of a single exiftool run",
			Value:       60 * time.Second,
			Destination: &toolTimeout,
		},
		&cli.IntFlag{
			Name:        "max-passes",
			Usage:       "maximum number of descriptor injection passes (at least 2)",
			Value:       4,
			Destination: &maxPasses,
		},
		&cli.StringFlag{
			Name:        "tmp-dir",
			Usage:       "parent directory of scratch files (default: system temp dir)",
			Destination: &tmpDir,
		},
		&cli.StringFlag{
			Name:        "video-mime",
			Usage:       "mime type declared for the video segment",
			Value:       motionhdr.MimeMP4,
			Destination: &videoMime,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (console, json)",
			Value:       "console",
			Destination: &logFormat,
		},
	}
}

var gainMapFlagNames = []string{"gain-map-min", "gain-map-max", "gamma", "hdr-capacity-min", "hdr-capacity-max"}

func gainMapFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "gain-map-min", Usage: "hdrgm:GainMapMin"},
		&cli.Float64Flag{Name: "gain-map-max", Usage: "hdrgm:GainMapMax"},
		&cli.Float64Flag{Name: "gamma", Usage: "hdrgm:Gamma"},
		&cli.Float64Flag{Name: "hdr-capacity-min", Usage: "hdrgm:HDRCapacityMin (hdr only)"},
		&cli.Float64Flag{Name: "hdr-capacity-max", Usage: "hdrgm:HDRCapacityMax"},
	}
}

// gainMapParams returns the config file parameters overridden by explicitly set flags.
func gainMapParams(cmd *cli.Command) motionhdr.GainMapParams {
	var p motionhdr.GainMapParams
	dst := []**float64{&p.GainMapMin, &p.GainMapMax, &p.Gamma, &p.HDRCapacityMin, &p.HDRCapacityMax}
	for i, name := range gainMapFlagNames {
		if cmd.IsSet(name) {
			*dst[i] = motionhdr.Float(cmd.Float64(name))
		}
	}
	return configParams.Merge(p)
}
