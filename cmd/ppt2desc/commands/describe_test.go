package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BikS2013/ppt2desc/internal/config"
)

func TestApplyDescribeFlags(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ant-key")

	f := describeCmd.Flags()
	require.NoError(t, f.Set("provider", "anthropic"))
	require.NoError(t, f.Set("rate_limit", "12"))
	require.NoError(t, f.Set("concurrency", "2"))
	require.NoError(t, f.Set("deck_concurrency", "3"))
	require.NoError(t, f.Set("max_attempts", "5"))
	require.NoError(t, f.Set("instructions", "Focus on numbers"))
	require.NoError(t, f.Set("recursive", "true"))
	require.NoError(t, f.Set("output_dir", "/tmp/out"))

	cfg := config.DefaultConfig()
	cfg.RateLimit.Window = time.Second
	applyDescribeFlags(describeCmd, cfg)

	assert.Equal(t, config.ProviderAnthropic, cfg.Model.Provider)
	assert.Equal(t, config.DefaultModel(config.ProviderAnthropic), cfg.Model.Name)
	assert.Equal(t, "ant-key", cfg.Model.APIKey)
	assert.Equal(t, 12, cfg.RateLimit.RequestsPerWindow)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, 3, cfg.Pipeline.DeckConcurrency)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, "Focus on numbers", cfg.Prompt.Instructions)
	assert.True(t, cfg.Pipeline.Recursive)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDescribeConfig_FlagsOverrideBadEnvironment(t *testing.T) {
	soffice := filepath.Join(t.TempDir(), "soffice")
	require.NoError(t, os.WriteFile(soffice, []byte("#!/bin/sh\n"), 0o755))

	t.Setenv("PPT2DESC_PROVIDER", "bogus")
	t.Setenv("LIBREOFFICE_PATH", filepath.Join(t.TempDir(), "stale", "soffice"))
	t.Setenv("OPENAI_API_KEY", "oai-key")

	f := describeCmd.Flags()
	require.NoError(t, f.Set("provider", "openai"))
	require.NoError(t, f.Set("libreoffice_path", soffice))
	require.NoError(t, f.Set("output_dir", t.TempDir()))

	cfg, err := loadDescribeConfig(describeCmd)
	require.NoError(t, err)
	assert.Equal(t, config.ProviderOpenAI, cfg.Model.Provider)
	assert.Equal(t, "oai-key", cfg.Model.APIKey)
	assert.Equal(t, soffice, cfg.Render.LibreOfficePath)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.True(t, strings.HasPrefix(out.String(), "ppt2desc "+Version))
}
