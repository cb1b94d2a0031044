package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "json", cfg.Format)
	assert.Empty(t, cfg.Ignore)
	assert.Zero(t, cfg.Workers)
	assert.False(t, cfg.Verbose)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("ARCHSCOPE_MAX_FILES", "50")
	t.Setenv("ARCHSCOPE_VERBOSE", "true")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MaxFiles)
	assert.True(t, cfg.Verbose)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ARCHSCOPE_WORKERS", "2")

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Int("workers", 0, "")
	f.String("root", ".", "")
	require.NoError(t, f.Parse([]string{"--workers=8", "--root=/tmp/proj"}))

	cfg, err := Load(f)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "/tmp/proj", cfg.Root)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.String("format", "json", "")
	require.NoError(t, f.Parse([]string{"--format=xml"}))

	_, err := Load(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
