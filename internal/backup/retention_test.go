package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(infos []Info) []string {
	out := make([]string, len(infos))
	for i, info := range infos {
		out[i] = info.Path
	}
	return out
}

func TestCountPolicy(t *testing.T) {
	now := time.Now()
	snaps := []Info{
		{Path: "/b/3", CreatedAt: now},
		{Path: "/b/2", CreatedAt: now.Add(-time.Hour)},
		{Path: "/b/1", CreatedAt: now.Add(-2 * time.Hour)},
	}

	assert.Equal(t, []string{"/b/3", "/b/2"}, paths((&CountPolicy{MaxCount: 2}).Apply(snaps)))
	assert.Len(t, (&CountPolicy{MaxCount: 5}).Apply(snaps), 3)
}

func TestAgePolicy(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	snaps := []Info{
		{Path: "/b/new", CreatedAt: now.Add(-time.Hour)},
		{Path: "/b/old", CreatedAt: now.Add(-48 * time.Hour)},
	}
	p := &AgePolicy{MaxAge: 24 * time.Hour, now: func() time.Time { return now }}
	assert.Equal(t, []string{"/b/new"}, paths(p.Apply(snaps)))
}

func TestCompositePolicy_Union(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	snaps := []Info{
		{Path: "/b/3", CreatedAt: now.Add(-time.Hour)},
		{Path: "/b/2", CreatedAt: now.Add(-2 * time.Hour)},
		{Path: "/b/1", CreatedAt: now.Add(-72 * time.Hour)},
	}
	p := &CompositePolicy{Policies: []RetentionPolicy{
		&CountPolicy{MaxCount: 1},
		&AgePolicy{MaxAge: 24 * time.Hour, now: func() time.Time { return now }},
	}}
	assert.Equal(t, []string{"/b/3", "/b/2"}, paths(p.Apply(snaps)))
}

func TestListAndApplyRetention(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		snap := sampleSnapshot()
		snap.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, WriteFile(GeneratePath(dir, snap.CreatedAt), snap))
	}
	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	list, err := List(dir)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.True(t, list[0].CreatedAt.Equal(base.Add(3*time.Hour)), "newest CreatedAt = %v", list[0].CreatedAt)

	deleted, err := ApplyRetention(dir, &CountPolicy{MaxCount: 2})
	require.NoError(t, err)
	assert.Len(t, deleted, 2)

	list, err = List(dir)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestList_MissingDir(t *testing.T) {
	list, err := List(filepath.Join(t.TempDir(), "absent"))
	assert.NoError(t, err)
	assert.Nil(t, list)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"720h", 720 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"", 0, true},
		{"x", 0, true},
		{"5y", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
