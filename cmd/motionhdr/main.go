// Command motionhdr assembles motion photos and UltraHDR JPEG containers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	app := newApp()

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "motionhdr",
		Usage: "Assemble motion photos and UltraHDR containers",
		Flags: append(globalFlags(), loggingFlags()...),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := LoadConfig(configFile, cmd.IsSet("config"))
			if err != nil {
				return ctx, err
			}
			applyConfig(cmd, cfg)

			if logger, err = newLogger(logLevel, logFormat); err != nil {
				return ctx, err
			}
			return ctx, nil
		},
		After: func(context.Context, *cli.Command) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			motionCmd(),
			hdrCmd(),
			combinedCmd(),
			inspectCmd(),
			splitCmd(),
			batchCmd(),
		},
	}
}
