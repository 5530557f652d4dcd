package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
)

type captureIndexer struct {
	batches [][]domain.ElementData
	err     error
}

func (c *captureIndexer) IndexBatch(_ context.Context, els []domain.ElementData) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.batches = append(c.batches, els)
	ids := make([]string, len(els))
	for i := range ids {
		ids[i] = "id"
	}
	return ids, nil
}

type stubVCS struct {
	commit string
}

func (s stubVCS) HeadCommit(string) string { return s.commit }

func testConfig() *Config {
	return &Config{
		ServerURL:       "http://localhost:3001",
		IncludePatterns: []string{`func\s+(\w+)\s*\(`},
		ExcludePatterns: nil,
		Extensions:      []string{".go"},
		IgnoreDirs:      []string{".git", "node_modules"},
		SearchThreshold: 0.5,
		PairThreshold:   0.8,
		Limit:           10,
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanIndexesExtractedElements(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func alpha() {\n\treturn\n}\n\nfunc beta() {\n\treturn\n}\n")

	idx := &captureIndexer{}
	s, err := New(testConfig(), idx, stubVCS{commit: "abc123"})
	require.NoError(t, err)

	stats, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesScanned)
	assert.Equal(t, 2, stats.ElementsFound)
	assert.Equal(t, 2, stats.ElementsIndexed)
	assert.Equal(t, 0, stats.BatchesFailed)

	require.Len(t, idx.batches, 1)
	batch := idx.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "alpha", batch[0].Metadata.ElementName)
	assert.Equal(t, "beta", batch[1].Metadata.ElementName)
	assert.Equal(t, "a.go", batch[0].Metadata.FilePath)
	assert.Equal(t, "abc123", batch[0].Metadata.CommitHash)
	assert.Len(t, batch[0].Metadata.FileHash, 64)
	assert.Equal(t, batch[0].Metadata.FileHash, batch[1].Metadata.FileHash)
}

func TestScanSkipsIgnoredDirsAndOtherExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.go", "func keep() {\n}\n")
	writeFile(t, dir, filepath.Join("node_modules", "dep.go"), "func skipped() {\n}\n")
	writeFile(t, dir, "notes.txt", "func notCode() {\n}\n")

	idx := &captureIndexer{}
	s, err := New(testConfig(), idx, stubVCS{})
	require.NoError(t, err)

	stats, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesScanned)
	require.Len(t, idx.batches, 1)
	require.Len(t, idx.batches[0], 1)
	assert.Equal(t, "keep", idx.batches[0][0].Metadata.ElementName)
}

func TestScanContinuesAfterBatchFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func one() {\n}\n")
	writeFile(t, dir, "b.go", "func two() {\n}\n")

	idx := &captureIndexer{err: errors.New("server unavailable")}
	s, err := New(testConfig(), idx, stubVCS{})
	require.NoError(t, err)

	stats, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesScanned)
	assert.Equal(t, 2, stats.ElementsFound)
	assert.Equal(t, 0, stats.ElementsIndexed)
	assert.Equal(t, 2, stats.BatchesFailed)
}

func TestScanEmptyCommitOutsideRepository(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func solo() {\n}\n")

	idx := &captureIndexer{}
	s, err := New(testConfig(), idx, stubVCS{commit: ""})
	require.NoError(t, err)

	_, err = s.Scan(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, idx.batches, 1)
	assert.Empty(t, idx.batches[0][0].Metadata.CommitHash)
}

func TestNewRejectsInvalidPattern(t *testing.T) {
	cfg := testConfig()
	cfg.IncludePatterns = []string{`func\s+(\w+(`}

	_, err := New(cfg, &captureIndexer{}, stubVCS{})
	assert.Error(t, err)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001", cfg.ServerURL)
	assert.NotEmpty(t, cfg.IncludePatterns)
	assert.Contains(t, cfg.Extensions, ".go")
	assert.Contains(t, cfg.IgnoreDirs, "node_modules")
	assert.InDelta(t, 0.5, cfg.SearchThreshold, 1e-9)
	assert.InDelta(t, 0.8, cfg.PairThreshold, 1e-9)
	assert.Equal(t, 10, cfg.Limit)
}

func TestLoadConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "codeecho.yaml", "server_url: http://indexer:9000\nlimit: 25\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://indexer:9000", cfg.ServerURL)
	assert.Equal(t, 25, cfg.Limit)
	assert.NotEmpty(t, cfg.IncludePatterns)
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	cfg.SearchThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.ServerURL = ""
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.Limit = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, testConfig().Validate())
}

func TestScanDefaultPatternsExtractArrowFunctions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "const add = (a, b) => { return a + b; }\n\nconst wrap = (x) => {\n\tif (x) {\n\t\treturn [x]\n\t}\n\treturn []\n}\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	idx := &captureIndexer{}
	s, err := New(cfg, idx, stubVCS{})
	require.NoError(t, err)

	stats, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ElementsFound)

	require.Len(t, idx.batches, 1)
	batch := idx.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "add", batch[0].Metadata.ElementName)
	assert.Equal(t, "const add = (a, b) => { return a + b; }", batch[0].ElementString)
	assert.Equal(t, "wrap", batch[1].Metadata.ElementName)
	// The nested if block must not truncate the body.
	assert.Contains(t, batch[1].ElementString, "return []")
}
