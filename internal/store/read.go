package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/codesearch-io/codesearch/internal/cerrors"
	"github.com/codesearch-io/codesearch/internal/model"
)

// fetchChunksByIDLocked loads full chunk rows for the given ids, keyed by
// id, skipping ids that no longer exist (e.g. deleted since the BM25/vector
// index was last rebuilt).
func (s *Store) fetchChunksByIDLocked(ctx context.Context, ids []string) (map[string]model.CodeChunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(
		`SELECT id, repository_id, file_path, content, start_line, end_line, language, node_type, symbol_name, parent_symbol FROM %s WHERE id IN (%s)`,
		s.chunksTbl, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "fetching chunks by id", err)
	}
	defer rows.Close()

	out := make(map[string]model.CodeChunk, len(ids))
	for rows.Next() {
		var c model.CodeChunk
		var nodeType string
		if err := rows.Scan(&c.ID, &c.RepositoryID, &c.FilePath, &c.Content, &c.StartLine, &c.EndLine, &c.Language, &nodeType, &c.SymbolName, &c.ParentSymbol); err != nil {
			return nil, cerrors.Wrap(cerrors.Storage, "scanning chunk row", err)
		}
		c.NodeType = model.NodeType(nodeType)
		out[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "iterating chunk rows", err)
	}
	return out, nil
}

// CountByRepository returns the number of chunks currently stored for a
// repository, used by the Indexer to refresh Repository.ChunkCount after a
// run.
func (s *Store) CountByRepository(ctx context.Context, repoID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE repository_id = ?`, s.chunksTbl)
	var count int
	if err := s.db.QueryRowContext(ctx, query, repoID).Scan(&count); err != nil {
		return 0, cerrors.Wrap(cerrors.Storage, "counting chunks by repository", err)
	}
	return count, nil
}

// filterClause builds a "column IN (...)" fragment plus its args, or ""
// when values is empty (meaning "no filter").
func filterClause(column string, values []string) (string, []any) {
	if len(values) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ",")), args
}
