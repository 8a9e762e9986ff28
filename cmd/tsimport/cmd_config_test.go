package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigSetGet(t *testing.T) {
	isolateHome(t)

	mustRun(t, "config", "set", "importer.default_sampling_rate", "256")

	out := mustRun(t, "config", "get", "importer.default_sampling_rate")
	assert.Equal(t, "importer.default_sampling_rate = 256", strings.TrimSpace(out))

	assert.FileExists(t, filepath.Join(os.Getenv("HOME"), ".tsimport", "config.yaml"))

	out = mustRun(t, "config", "list")
	assert.Contains(t, out, "importer.default_sampling_rate")
	assert.Contains(t, out, "logging.level")
	assert.NotContains(t, out, "default_kind")
}

func TestConfigSet_Invalid(t *testing.T) {
	isolateHome(t)

	tests := []struct {
		key, value string
	}{
		{"nope", "1"},
		{"importer.default_sampling_rate", "-5"},
		{"importer.default_kind", "eeg"},
		{"logging.level", "loud"},
	}
	for _, tt := range tests {
		_, err := runCmd(t, "config", "set", tt.key, tt.value)
		assert.Error(t, err, "set %s %s", tt.key, tt.value)
	}

	_, err := runCmd(t, "config", "get", "nope")
	assert.Error(t, err, "get of unknown key should fail")
}

func TestConfig_EnvNotPersisted(t *testing.T) {
	isolateHome(t)
	t.Setenv("TSIMPORT_SAMPLING_RATE", "512")

	mustRun(t, "config", "set", "logging.level", "debug")

	t.Setenv("TSIMPORT_SAMPLING_RATE", "")
	out := mustRun(t, "config", "get", "importer.default_sampling_rate")
	assert.Equal(t, "importer.default_sampling_rate = 100", strings.TrimSpace(out), "env override leaked into the file")
}

func TestImport_UsesConfiguredSamplingRate(t *testing.T) {
	root, _, sensorsGID := setupProject(t)
	mustRun(t, "config", "set", "importer.default_sampling_rate", "200")

	matPath := filepath.Join(root, "eeg.mat")
	writeMAT(t, matPath, "eeg", 6, 4)

	out := mustRun(t, "import", matPath, "--root", root, "--dataset", "eeg", "--sensors", sensorsGID)
	assert.Contains(t, out, "200 Hz")
	assert.Contains(t, out, "TimeSeriesEEG")
}
