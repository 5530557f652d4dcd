// Package scanner walks a source tree, extracts code elements, and submits
// them to a CodeEcho server for indexing.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/domain"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/extractor"
	"github.com/arturoeanton/go-code-similarity-ollama/internal/port"
)

// Indexer submits extracted elements for indexing.
type Indexer interface {
	IndexBatch(ctx context.Context, els []domain.ElementData) ([]string, error)
}

// Stats summarizes one scan run.
type Stats struct {
	FilesScanned    int
	FilesFailed     int
	ElementsFound   int
	ElementsIndexed int
	BatchesFailed   int
}

// Scanner extracts elements from a directory tree and pushes them to the
// indexing service, one batch per file.
type Scanner struct {
	cfg     *Config
	indexer Indexer
	vcs     port.VCSProvider
	include []*regexp.Regexp
	exclude []*regexp.Regexp
	logger  *slog.Logger
}

// New compiles the configured patterns and returns a ready scanner.
func New(cfg *Config, indexer Indexer, vcs port.VCSProvider) (*Scanner, error) {
	include, err := extractor.CompilePatterns(cfg.IncludePatterns)
	if err != nil {
		return nil, fmt.Errorf("compile include patterns: %w", err)
	}
	exclude, err := extractor.CompilePatterns(cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("compile exclude patterns: %w", err)
	}
	return &Scanner{
		cfg:     cfg,
		indexer: indexer,
		vcs:     vcs,
		include: include,
		exclude: exclude,
		logger:  slog.Default(),
	}, nil
}

// Scan walks root and indexes every extracted element. Per-file failures
// are logged and counted but do not abort the walk. The returned error is
// non-nil only when the walk itself cannot proceed.
func (s *Scanner) Scan(ctx context.Context, root string) (*Stats, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}

	commitHash := s.vcs.HeadCommit(absRoot)

	ignore := make(map[string]bool, len(s.cfg.IgnoreDirs))
	for _, d := range s.cfg.IgnoreDirs {
		ignore[d] = true
	}
	extensions := make(map[string]bool, len(s.cfg.Extensions))
	for _, e := range s.cfg.Extensions {
		extensions[e] = true
	}

	stats := &Stats{}
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != absRoot && ignore[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !extensions[filepath.Ext(path)] {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		s.scanFile(ctx, absRoot, path, commitHash, stats)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk %s: %w", absRoot, err)
	}

	s.logger.Info("scan complete",
		"root", absRoot,
		"filesScanned", stats.FilesScanned,
		"filesFailed", stats.FilesFailed,
		"elementsFound", stats.ElementsFound,
		"elementsIndexed", stats.ElementsIndexed,
		"batchesFailed", stats.BatchesFailed)
	return stats, nil
}

func (s *Scanner) scanFile(ctx context.Context, root, path, commitHash string, stats *Stats) {
	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("failed to read file", "path", path, "error", err)
		stats.FilesFailed++
		return
	}
	stats.FilesScanned++

	elements := extractor.Extract(string(content), s.include, s.exclude)
	if len(elements) == 0 {
		return
	}
	stats.ElementsFound += len(elements)

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		relPath = path
	}

	sum := sha256.Sum256(content)
	fileHash := hex.EncodeToString(sum[:])

	for i := range elements {
		elements[i].Metadata.FilePath = relPath
		elements[i].Metadata.BasePath = root
		elements[i].Metadata.FileHash = fileHash
		elements[i].Metadata.CommitHash = commitHash
	}

	ids, err := s.indexer.IndexBatch(ctx, elements)
	if err != nil {
		s.logger.Warn("failed to index file batch", "path", relPath, "elements", len(elements), "error", err)
		stats.BatchesFailed++
		return
	}
	stats.ElementsIndexed += len(ids)
}
