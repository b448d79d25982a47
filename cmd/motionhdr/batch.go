package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"github.com/vearutop/motionhdr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Manifest lists batch jobs. Relative paths are resolved against the manifest directory.
type Manifest struct {
	Concurrency int             `yaml:"concurrency"`
	Jobs        []motionhdr.Job `yaml:"jobs"`
}

// LoadManifest reads a YAML batch manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(m.Jobs) == 0 {
		return nil, errors.New("manifest has no jobs")
	}

	dir := filepath.Dir(path)
	rel := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i := range m.Jobs {
		j := &m.Jobs[i]
		if j.Variant == 0 {
			return nil, fmt.Errorf("job %d: variant is required", i)
		}
		j.Primary = rel(j.Primary)
		j.GainMap = rel(j.GainMap)
		j.Video = rel(j.Video)
		j.Output = rel(j.Output)
	}

	return &m, nil
}

type batchReport struct {
	Results []*motionhdr.Result `json:"results"`
	Error   string              `json:"error,omitempty"`
}

func batchCmd() *cli.Command {
	var (
		manifest string
		jobs     int
	)

	return &cli.Command{
		Name:  "batch",
		Usage: "Assemble the containers listed in a YAML manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "manifest", Aliases: []string{"m"}, Usage: "path to manifest.yaml", Required: true, Destination: &manifest},
			&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Usage: "number of concurrent jobs (default: manifest or CPU count)", Destination: &jobs},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m, err := LoadManifest(manifest)
			if err != nil {
				return err
			}

			concurrency := runtime.NumCPU()
			if m.Concurrency > 0 {
				concurrency = m.Concurrency
			}
			if cmd.IsSet("jobs") {
				concurrency = jobs
			}

			opts, err := assembleOptions(ctx)
			if err != nil {
				return err
			}
			opts = append(opts,
				motionhdr.WithParams(configParams),
				func(o *motionhdr.Options) {
					o.OnResult = func(res *motionhdr.Result) {
						logger.Info("job done", zap.String("output", res.Output), zap.Int64("size", res.Size))
					}
				},
			)

			logger.Info("starting batch", zap.Int("jobs", len(m.Jobs)), zap.Int("concurrency", concurrency))

			results, runErr := motionhdr.AssembleBatch(ctx, m.Jobs, concurrency, opts...)

			report := batchReport{Results: results}
			if runErr != nil {
				report.Error = runErr.Error()
			}
			enc := json.NewEncoder(cmd.Root().Writer)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}

			return runErr
		},
	}
}
