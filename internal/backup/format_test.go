package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JulieCB/tvb-root/internal/topology"
)

func sampleSnapshot() *Snapshot {
	return &Snapshot{
		Version:        FormatVersion,
		CreatedAt:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Connectivities: []*topology.Connectivity{{ID: "c1", Title: "conn", NumberOfRegions: 76}},
	}
}

func TestWriteReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json.gz")
	require.NoError(t, WriteFile(path, sampleSnapshot()))

	got, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, got.Connectivities, 1)
	assert.Equal(t, 76, got.Connectivities[0].NumberOfRegions)
	assert.True(t, got.CreatedAt.Equal(sampleSnapshot().CreatedAt), "CreatedAt = %v", got.CreatedAt)

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Regexp(t, `^sha256:`, h.Checksum)
	assert.Equal(t, "2024-01-02T03:04:05Z", h.CreatedAt)
}

func TestVerifyChecksum_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json.gz")
	require.NoError(t, WriteFile(path, sampleSnapshot()))
	require.NoError(t, VerifyChecksum(path), "intact file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o600))

	assert.ErrorContains(t, VerifyChecksum(path), "checksum mismatch")
	_, err = ReadFile(path)
	assert.Error(t, err, "ReadFile() should reject a corrupted payload")
}

func TestReadHeader_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"not json", "hello\n"},
		{"wrong version", `{"version":9,"checksum":"sha256:00"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snap.json.gz")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			_, err := ReadHeader(path)
			assert.Error(t, err)
		})
	}
}
