package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/motionhdr"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
injector: exiftool
exiftool: /opt/exiftool/exiftool
timeout: 90s
max_passes: 6
video_mime: video/quicktime
log_level: debug
gain_map:
  gain_map_max: 3.5
  hdr_capacity_max: 3
`), 0o600))

	cfg, err := LoadConfig(p, true)
	require.NoError(t, err)

	assert.Equal(t, "exiftool", cfg.Injector)
	assert.Equal(t, "/opt/exiftool/exiftool", cfg.ExifTool)
	require.NotNil(t, cfg.Timeout)
	assert.Equal(t, 90*time.Second, *cfg.Timeout)
	require.NotNil(t, cfg.MaxPasses)
	assert.Equal(t, 6, *cfg.MaxPasses)
	assert.Equal(t, "video/quicktime", cfg.VideoMime)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, motionhdr.GainMapParams{
		GainMapMax:     motionhdr.Float(3.5),
		HDRCapacityMax: motionhdr.Float(3),
	}, cfg.GainMap)
}

func TestLoadConfig_missing(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := LoadConfig(p, false)
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)

	_, err = LoadConfig(p, true)
	assert.Error(t, err)
}

func TestLoadConfig_invalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("max_passes: [1, 2"), 0o600))

	_, err := LoadConfig(p, false)
	assert.Error(t, err)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
concurrency: 3
jobs:
  - variant: motion
    primary: in/a.jpg
    video: in/a.mp4
    output: out/a.jpg
  - variant: hdr
    primary: /abs/b.jpg
    gainmap: in/b_gm.jpg
    output: out/b.jpg
    params:
      gamma: 1.5
`), 0o600))

	m, err := LoadManifest(p)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Concurrency)
	require.Len(t, m.Jobs, 2)

	assert.Equal(t, motionhdr.VariantMotionPhoto, m.Jobs[0].Variant)
	assert.Equal(t, filepath.Join(dir, "in", "a.jpg"), m.Jobs[0].Primary)
	assert.Equal(t, filepath.Join(dir, "in", "a.mp4"), m.Jobs[0].Video)
	assert.Equal(t, filepath.Join(dir, "out", "a.jpg"), m.Jobs[0].Output)

	assert.Equal(t, motionhdr.VariantUltraHDR, m.Jobs[1].Variant)
	assert.Equal(t, "/abs/b.jpg", m.Jobs[1].Primary)
	require.NotNil(t, m.Jobs[1].Params.Gamma)
	assert.Equal(t, 1.5, *m.Jobs[1].Params.Gamma)
}

func TestLoadManifest_errors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("jobs: []\n"), 0o600))
	_, err := LoadManifest(empty)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("jobs:\n  - variant: gif\n"), 0o600))
	_, err = LoadManifest(bad)
	assert.Error(t, err)

	noVariant := filepath.Join(dir, "novariant.yaml")
	require.NoError(t, os.WriteFile(noVariant, []byte("jobs:\n  - primary: a.jpg\n    output: b.jpg\n"), 0o600))
	_, err = LoadManifest(noVariant)
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger("debug", "json")
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = newLogger("loud", "json")
	assert.Error(t, err)

	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}
