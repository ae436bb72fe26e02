package store

import (
	"context"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/codesearch-io/codesearch/internal/cerrors"
	"github.com/codesearch-io/codesearch/internal/model"
)

// SearchSemantic joins the vec0 KNN search against the chunks table,
// scoring by 1 - cosine_distance, applying language/node-type/repository
// filters, and returning at most limit results ordered descending by score.
// In semantic-only (non-hybrid) mode the caller passes q.MinScore to apply
// the cutoff here; hybrid callers pass nil and defer it to post-fusion.
func (s *Store) SearchSemantic(ctx context.Context, queryVec []float32, q model.SearchQuery, limit int, minScore *float32) ([]model.SearchResult, error) {
	queryBlob, err := sqlite_vec.SerializeFloat32(queryVec)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.Embedding, "serializing query vector", err)
	}

	// Over-fetch from the vec0 index since filters are applied after the
	// join; vec0 has no native metadata filtering.
	knnLimit := limit * 4
	if knnLimit < limit+20 {
		knnLimit = limit + 20
	}

	knnQuery := fmt.Sprintf(
		`SELECT chunk_id, vec_distance_cosine(embedding, ?) AS distance FROM %s ORDER BY distance LIMIT ?`,
		s.vecTbl)

	s.mu.Lock()
	rows, err := s.db.QueryContext(ctx, knnQuery, queryBlob, knnLimit)
	if err != nil {
		s.mu.Unlock()
		return nil, cerrors.Wrap(cerrors.Storage, "vector knn query", err)
	}
	type hit struct {
		id       string
		distance float64
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.id, &h.distance); err != nil {
			rows.Close()
			s.mu.Unlock()
			return nil, cerrors.Wrap(cerrors.Storage, "scanning vector hit", err)
		}
		hits = append(hits, h)
	}
	rowsErr := rows.Err()
	rows.Close()
	if rowsErr != nil {
		s.mu.Unlock()
		return nil, cerrors.Wrap(cerrors.Storage, "iterating vector hits", rowsErr)
	}

	if len(hits) == 0 {
		s.mu.Unlock()
		return nil, nil
	}

	ids := make([]string, len(hits))
	distanceByID := make(map[string]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.id
		distanceByID[h.id] = h.distance
	}

	chunks, err := s.fetchChunksByIDFiltered(ctx, ids, q)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(chunks))
	for _, id := range ids {
		c, ok := chunks[id]
		if !ok {
			continue
		}
		score := float32(1 - distanceByID[id])
		if minScore != nil && score < *minScore {
			continue
		}
		results = append(results, model.SearchResult{Chunk: c, Score: score})
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// fetchChunksByIDFiltered loads chunk rows by id, additionally filtered by
// the query's language/node-type/repository predicates, with s.mu already
// held by the caller.
func (s *Store) fetchChunksByIDFiltered(ctx context.Context, ids []string, q model.SearchQuery) (map[string]model.CodeChunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	where := fmt.Sprintf("id IN (%s)", joinPlaceholders(placeholders))

	if clause, clauseArgs := filterClause("repository_id", q.RepositoryIDs); clause != "" {
		where += " AND " + clause
		args = append(args, clauseArgs...)
	}
	if clause, clauseArgs := filterClause("language", q.Languages); clause != "" {
		where += " AND " + clause
		args = append(args, clauseArgs...)
	}
	if len(q.NodeTypes) > 0 {
		values := make([]string, len(q.NodeTypes))
		for i, nt := range q.NodeTypes {
			values[i] = string(nt)
		}
		clause, clauseArgs := filterClause("node_type", values)
		where += " AND " + clause
		args = append(args, clauseArgs...)
	}

	query := fmt.Sprintf(
		`SELECT id, repository_id, file_path, content, start_line, end_line, language, node_type, symbol_name, parent_symbol FROM %s WHERE %s`,
		s.chunksTbl, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "fetching filtered chunks by id", err)
	}
	defer rows.Close()

	out := make(map[string]model.CodeChunk, len(ids))
	for rows.Next() {
		var c model.CodeChunk
		var nodeType string
		if err := rows.Scan(&c.ID, &c.RepositoryID, &c.FilePath, &c.Content, &c.StartLine, &c.EndLine, &c.Language, &nodeType, &c.SymbolName, &c.ParentSymbol); err != nil {
			return nil, cerrors.Wrap(cerrors.Storage, "scanning filtered chunk row", err)
		}
		c.NodeType = model.NodeType(nodeType)
		out[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "iterating filtered chunk rows", err)
	}
	return out, nil
}

func joinPlaceholders(placeholders []string) string {
	out := ""
	for i, p := range placeholders {
		if i > 0 {
			out += ","
		}
		out += p
	}
	return out
}
