package tracker

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSources_SortedAcrossPatterns(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "ais-2025-07-11.csv", csvHeader)
	writeCSV(t, dir, "ais-2025-07-04.csv", csvHeader)
	writeZstCSV(t, dir, "ais-2025-07-05.csv.zst", csvHeader)
	writeCSV(t, dir, "notes.txt", "ignore me")

	files, err := FindSources([]string{
		filepath.Join(dir, "ais-2025-*.csv"),
		filepath.Join(dir, "ais-2025-*.csv.zst"),
		filepath.Join(dir, "ais-2025-07-04*"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "ais-2025-07-04.csv"),
		filepath.Join(dir, "ais-2025-07-05.csv.zst"),
		filepath.Join(dir, "ais-2025-07-11.csv"),
	}, files)
}

func TestFindSources_NoMatch(t *testing.T) {
	dir := t.TempDir()

	files, err := FindSources([]string{filepath.Join(dir, "ais-2025-*.csv")})
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Nil(t, files)
}

func TestFindSources_BadPattern(t *testing.T) {
	_, err := FindSources([]string{"ais-[.csv"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoInput)
}
