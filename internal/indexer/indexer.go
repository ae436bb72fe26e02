// Package indexer walks a repository, classifies each file as unchanged,
// changed, or new by content hash, and drives the parse -> embed -> persist
// pipeline that keeps the Chunk Store, Call-Graph Store, and Metadata Store
// in sync with the filesystem.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codesearch-io/codesearch/internal/embed"
	"github.com/codesearch-io/codesearch/internal/graphstore"
	"github.com/codesearch-io/codesearch/internal/lang"
	"github.com/codesearch-io/codesearch/internal/metastore"
	"github.com/codesearch-io/codesearch/internal/model"
	"github.com/codesearch-io/codesearch/internal/parse"
	"github.com/codesearch-io/codesearch/internal/store"
)

// defaultEmbedBatchSize is how many chunks are embedded per Provider.Embed
// call.
const defaultEmbedBatchSize = 32

// exportScanConcurrency bounds how many JS/TS files are read concurrently
// during the export pre-scan pass.
const exportScanConcurrency = 16

// Indexer owns the collaborators needed to build or refresh one
// repository's index.
type Indexer struct {
	Meta     *metastore.Store
	Chunks   *store.Store
	Graph    *graphstore.Store
	Embedder embed.Provider
	Log      *slog.Logger

	// OnFileProcessed, if set, is called once per file at the start of that
	// file's turn, before it is read or classified, with the file's 1-based
	// position and the run's total. Callers use it to drive a progress bar; it is
	// never required for correctness.
	OnFileProcessed func(processed, total int)
}

// Stats summarizes one indexing run.
type Stats struct {
	RepositoryID   string
	FilesNew       int
	FilesChanged   int
	FilesUnchanged int
	FilesDeleted   int
	FilesFailed    int
	ChunksWritten  int
	RefsWritten    int
	Duration       time.Duration
}

// Run indexes the repository rooted at path. If force is true, all existing
// chunks/embeddings/references/hashes for the repository are cleared before
// reprocessing, but its id is reused. The repository's display name is
// derived from path's base name.
func (idx *Indexer) Run(ctx context.Context, path string, force bool) (Stats, error) {
	return idx.run(ctx, path, force, "")
}

// RunNamed behaves like Run but records name as the repository's display
// name instead of deriving one from path, for the index command's --name
// flag. name is only used when the repository does not already exist; it
// never renames an existing repository.
func (idx *Indexer) RunNamed(ctx context.Context, path string, force bool, name string) (Stats, error) {
	return idx.run(ctx, path, force, name)
}

func (idx *Indexer) run(ctx context.Context, path string, force bool, name string) (Stats, error) {
	started := time.Now()
	logger := idx.logger()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return Stats{}, fmt.Errorf("canonicalising repository path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	repo, existed, err := idx.Meta.FindByPath(ctx, absPath)
	if err != nil {
		return Stats{}, fmt.Errorf("looking up repository record: %w", err)
	}
	now := time.Now().Unix()
	if !existed {
		displayName := name
		if displayName == "" {
			displayName = filepath.Base(absPath)
		}
		repo, err = idx.Meta.Create(ctx, displayName, absPath, repo.Namespace, now)
		if err != nil {
			return Stats{}, fmt.Errorf("creating repository record: %w", err)
		}
		logger.Info("created repository record", "repository_id", repo.ID, "path", absPath)
	} else if force {
		if err := idx.clearRepository(ctx, repo.ID); err != nil {
			return Stats{}, fmt.Errorf("clearing repository for force reindex: %w", err)
		}
		logger.Info("cleared existing repository data for force reindex", "repository_id", repo.ID)
	}

	files, err := walkRepository(absPath)
	if err != nil {
		return Stats{}, fmt.Errorf("walking repository tree: %w", err)
	}

	exportsByFile := idx.scanExports(ctx, files, logger)

	stats := Stats{RepositoryID: repo.ID}
	seenPaths := make(map[string]struct{}, len(files))
	languageCounts := make(map[string]int)

	for i, f := range files {
		seenPaths[f.relPath] = struct{}{}

		if idx.OnFileProcessed != nil {
			idx.OnFileProcessed(i+1, len(files))
		}

		content, err := os.ReadFile(f.absPath)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", f.relPath, "error", err)
			stats.FilesFailed++
			continue
		}
		sum := sha256.Sum256(content)
		newHash := hex.EncodeToString(sum[:])

		priorHash, hadHash, err := idx.Meta.FindHash(ctx, repo.ID, f.relPath)
		if err != nil {
			return stats, fmt.Errorf("looking up file hash for %s: %w", f.relPath, err)
		}

		switch {
		case hadHash && priorHash == newHash:
			stats.FilesUnchanged++
			languageCounts[f.language]++
			continue
		case hadHash:
			if err := idx.clearFile(ctx, repo.ID, f.relPath); err != nil {
				return stats, fmt.Errorf("clearing stale data for %s: %w", f.relPath, err)
			}
			stats.FilesChanged++
		default:
			stats.FilesNew++
		}

		written, refWritten, procErr := idx.processFile(ctx, repo.ID, f, content, exportsByFile)
		if procErr != nil {
			logger.Warn("skipping file after processing error", "path", f.relPath, "error", procErr)
			stats.FilesFailed++
			continue
		}
		stats.ChunksWritten += written
		stats.RefsWritten += refWritten
		languageCounts[f.language]++

		if err := idx.Meta.UpsertHash(ctx, model.FileHash{RepositoryID: repo.ID, FilePath: f.relPath, SHA256: newHash}); err != nil {
			return stats, fmt.Errorf("recording file hash for %s: %w", f.relPath, err)
		}
	}

	deleted, err := idx.reconcileDeletions(ctx, repo.ID, seenPaths)
	if err != nil {
		return stats, fmt.Errorf("reconciling deleted files: %w", err)
	}
	stats.FilesDeleted = deleted

	chunkCount, err := idx.Chunks.CountByRepository(ctx, repo.ID)
	if err != nil {
		return stats, fmt.Errorf("counting chunks after indexing: %w", err)
	}
	fileCount := stats.FilesNew + stats.FilesChanged + stats.FilesUnchanged
	if err := idx.Meta.UpdateStats(ctx, repo.ID, chunkCount, fileCount, time.Now().Unix(), languageCounts); err != nil {
		return stats, fmt.Errorf("updating repository stats: %w", err)
	}

	stats.Duration = time.Since(started)
	logger.Info("indexing run complete", "repository_id", repo.ID, "new", stats.FilesNew,
		"changed", stats.FilesChanged, "unchanged", stats.FilesUnchanged, "deleted", stats.FilesDeleted,
		"failed", stats.FilesFailed, "duration", stats.Duration)
	return stats, nil
}

// processFile parses, embeds, and persists one file's chunks and references.
func (idx *Indexer) processFile(ctx context.Context, repoID string, f walkFile, content []byte, exportsByFile map[string][]string) (chunksWritten, refsWritten int, err error) {
	result, err := parse.Parse(content, f.relPath, f.language, repoID, exportsByFile)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing: %w", err)
	}
	if len(result.Chunks) == 0 {
		return 0, 0, nil
	}

	embeddings, err := idx.embedChunks(ctx, result.Chunks)
	if err != nil {
		return 0, 0, fmt.Errorf("embedding: %w", err)
	}
	if err := idx.Chunks.SaveBatch(ctx, result.Chunks, embeddings); err != nil {
		return 0, 0, fmt.Errorf("persisting chunks: %w", err)
	}
	if len(result.References) > 0 {
		if err := idx.Graph.SaveBatch(ctx, result.References); err != nil {
			return 0, 0, fmt.Errorf("persisting references: %w", err)
		}
	}
	return len(result.Chunks), len(result.References), nil
}

// embedChunks embeds chunk content in batches of defaultEmbedBatchSize.
func (idx *Indexer) embedChunks(ctx context.Context, chunks []model.CodeChunk) ([]model.Embedding, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := embed.EmbedWithProgress(ctx, idx.Embedder, texts, embed.EmbedModePassage, defaultEmbedBatchSize, nil)
	if err != nil {
		return nil, err
	}

	embeddings := make([]model.Embedding, len(chunks))
	for i, c := range chunks {
		var vec [384]float32
		copy(vec[:], vectors[i])
		embeddings[i] = model.Embedding{ChunkID: c.ID, Vector: vec}
	}
	return embeddings, nil
}

// scanExports walks every JS/TS file once, with bounded concurrency, and
// builds the path (without extension) -> exported-names map the reference
// pass needs to resolve require()/import targets.
func (idx *Indexer) scanExports(ctx context.Context, files []walkFile, logger *slog.Logger) map[string][]string {
	type scanResult struct {
		key   string
		names []string
	}
	var jsFiles []walkFile
	for _, f := range files {
		if f.language == lang.JavaScript || f.language == lang.TypeScript {
			jsFiles = append(jsFiles, f)
		}
	}
	if len(jsFiles) == 0 {
		return nil
	}

	results := make([]scanResult, len(jsFiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportScanConcurrency)

	for i, f := range jsFiles {
		i, f := i, f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			content, err := os.ReadFile(f.absPath)
			if err != nil {
				logger.Warn("export pre-scan: skipping unreadable file", "path", f.relPath, "error", err)
				return nil
			}
			key := strings.TrimSuffix(f.relPath, filepath.Ext(f.relPath))
			results[i] = scanResult{key: key, names: parse.ScanExports(content, f.language)}
			return nil
		})
	}
	_ = g.Wait()

	exportsByFile := make(map[string][]string, len(results))
	for _, r := range results {
		if len(r.names) > 0 {
			exportsByFile[r.key] = r.names
		}
	}
	return exportsByFile
}

// clearFile removes a file's existing chunks and references before it is
// reprocessed (the "changed" classification).
func (idx *Indexer) clearFile(ctx context.Context, repoID, relPath string) error {
	if err := idx.Chunks.DeleteByFilePath(ctx, repoID, relPath); err != nil {
		return err
	}
	if _, err := idx.Graph.DeleteByFilePath(ctx, repoID, relPath); err != nil {
		return err
	}
	return nil
}

// clearRepository drops all chunks, references, and hashes for a
// repository id, as force reindexing requires, while keeping the
// Repository record itself (and its id) intact.
func (idx *Indexer) clearRepository(ctx context.Context, repoID string) error {
	if err := idx.Chunks.DeleteByRepository(ctx, repoID); err != nil {
		return err
	}
	if err := idx.Graph.DeleteByRepository(ctx, repoID); err != nil {
		return err
	}
	paths, err := idx.Meta.AllPaths(ctx, repoID)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := idx.Meta.DeleteHash(ctx, repoID, p); err != nil {
			return err
		}
	}
	return nil
}

// reconcileDeletions removes chunks/references/hashes for any file the
// store remembers hashing that did not appear in the current walk.
func (idx *Indexer) reconcileDeletions(ctx context.Context, repoID string, seen map[string]struct{}) (int, error) {
	known, err := idx.Meta.AllPaths(ctx, repoID)
	if err != nil {
		return 0, err
	}

	var deleted int
	for _, p := range known {
		if _, ok := seen[p]; ok {
			continue
		}
		if err := idx.clearFile(ctx, repoID, p); err != nil {
			return deleted, err
		}
		if err := idx.Meta.DeleteHash(ctx, repoID, p); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (idx *Indexer) logger() *slog.Logger {
	if idx.Log != nil {
		return idx.Log
	}
	return slog.Default()
}
