package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshelf/snapshelf/internal/moviematch"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := "database:\n" +
		"  path: " + filepath.Join(dir, "snapshelf.db") + "\n" +
		"metadata:\n" +
		"  use_mock: true\n" +
		"logging:\n" +
		"  level: error\n" +
		"  format: json\n"
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", configPath, "--env-file", ""}, args...))
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestCatalogImportAndMatch(t *testing.T) {
	configPath := writeTestConfig(t)

	csvPath := filepath.Join(t.TempDir(), "catalog.csv")
	csv := "title,year,director\n" +
		"Heat,1995,Michael Mann\n" +
		"Dune,2021,Denis Villeneuve\n" +
		",2000,\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0o600))

	out, err := runCLI(t, configPath, "catalog", "import", csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Inserted 2, existing 0, skipped 1\n", out)

	out, err = runCLI(t, configPath, "catalog", "count")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = runCLI(t, configPath, "match", "heat")
	require.NoError(t, err)
	assert.Contains(t, out, "Heat")
	assert.Contains(t, out, "EXACT")
	assert.Contains(t, out, "Michael Mann")

	out, err = runCLI(t, configPath, "match", "--json", "Dune")
	require.NoError(t, err)
	var resp moviematch.MatchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Data)
	assert.Equal(t, "Dune", resp.Data[0].Movie.Title)
	assert.Equal(t, 2021, resp.Data[0].Movie.Year)

	out, err = runCLI(t, configPath, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Live:    2")

	out, err = runCLI(t, configPath, "cache", "clear")
	require.NoError(t, err)
	assert.Equal(t, "Removed 2 entries\n", out)
}

func TestMatchNoResult(t *testing.T) {
	_, err := runCLI(t, writeTestConfig(t), "match", "zzqx", "qqzz")
	assert.ErrorIs(t, err, errNoMatch)
}

func TestSuggest(t *testing.T) {
	configPath := writeTestConfig(t)

	csvPath := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("title,year\nHeat,1995\nHeathers,1989\nDune,2021\n"), 0o600))
	_, err := runCLI(t, configPath, "catalog", "import", csvPath)
	require.NoError(t, err)

	out, err := runCLI(t, configPath, "suggest", "heat")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines, "Heat")
	assert.Contains(t, lines, "Heathers")
	assert.NotContains(t, lines, "Dune")
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]string{"Title", "Year"}, [][]string{{"Heat", "1995"}, {"Dune"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, got, "Heat")
	assert.Contains(t, got, "1995")
	assert.Equal(t, "", renderTable(nil, nil, nil))
}
