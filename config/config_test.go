package config

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig()
	require.NotEmpty(t, conf.ImagesDir)
	require.Equal(t, runtime.NumCPU(), conf.PoolSize)
	require.Equal(t, "info", conf.Log.Level)
}

func TestNormalize(t *testing.T) {
	conf := &Config{ImagesDir: "relative/images"}
	require.NoError(t, conf.Normalize())
	require.True(t, filepath.IsAbs(conf.ImagesDir))
	require.Equal(t, runtime.NumCPU(), conf.PoolSize)

	require.Error(t, (&Config{}).Normalize())
}
