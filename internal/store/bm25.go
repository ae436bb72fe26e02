package store

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/codesearch-io/codesearch/internal/cerrors"
	"github.com/codesearch-io/codesearch/internal/model"
)

// bm25Doc is the document shape indexed in bleve: content and symbol_name
// are the only BM25-scored fields (per spec.md §4.3); the rest are stored
// so SearchText can apply filters without a second sqlite round-trip.
type bm25Doc struct {
	Content      string `json:"content"`
	SymbolName   string `json:"symbol_name"`
	RepositoryID string `json:"repository_id"`
	Language     string `json:"language"`
	NodeType     string `json:"node_type"`
	FilePath     string `json:"file_path"`
}

// newChunkIndexMapping uses bleve's built-in "simple" analyzer (letter
// tokenizer, which splits at every non-letter rune, plus lowercase; no
// stemming) rather than a stemming analyzer, since spec.md calls for literal matching of code
// identifiers, not stemmed natural-language terms.
func newChunkIndexMapping() *mapping.IndexMappingImpl {
	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = "simple"
	return m
}

func bm25DocFromChunk(c model.CodeChunk) bm25Doc {
	return bm25Doc{
		Content:      c.Content,
		SymbolName:   c.SymbolName,
		RepositoryID: c.RepositoryID,
		Language:     c.Language,
		NodeType:     string(c.NodeType),
		FilePath:     c.FilePath,
	}
}

// rebuildBM25Locked rebuilds the bleve index from the chunks table from
// scratch. Called with s.mu held, only when s.dirty is true and the store
// is not read-only, matching spec.md §4.3's "dirty flag with lazy rebuild".
func (s *Store) rebuildBM25Locked(ctx context.Context) error {
	if s.readOnly {
		s.degradeOnce("rebuild skipped: store opened read-only")
		return nil
	}
	if s.bleve == nil {
		idx, err := openBleveIndex(s.bleveDir, false)
		if err != nil {
			return cerrors.Wrap(cerrors.Storage, "reopening bm25 index for rebuild", err)
		}
		s.bleve = idx
	}

	// Start from an empty index so documents of deleted chunks do not linger.
	if stale, _ := s.bleve.DocCount(); stale > 0 {
		all, err := s.bleve.SearchInContext(ctx, bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(stale), 0, false))
		if err != nil {
			return cerrors.Wrap(cerrors.Storage, "listing bm25 documents for rebuild", err)
		}
		purge := s.bleve.NewBatch()
		for _, hit := range all.Hits {
			purge.Delete(hit.ID)
		}
		if err := s.bleve.Batch(purge); err != nil {
			return cerrors.Wrap(cerrors.Storage, "clearing bm25 index for rebuild", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, repository_id, file_path, content, start_line, end_line, language, node_type, symbol_name, parent_symbol FROM %s`,
		s.chunksTbl))
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "reading chunks for bm25 rebuild", err)
	}
	defer rows.Close()

	batch := s.bleve.NewBatch()
	count := 0
	for rows.Next() {
		var c model.CodeChunk
		var nodeType string
		if err := rows.Scan(&c.ID, &c.RepositoryID, &c.FilePath, &c.Content, &c.StartLine, &c.EndLine, &c.Language, &nodeType, &c.SymbolName, &c.ParentSymbol); err != nil {
			return cerrors.Wrap(cerrors.Storage, "scanning chunk for bm25 rebuild", err)
		}
		c.NodeType = model.NodeType(nodeType)
		if err := batch.Index(c.ID, bm25DocFromChunk(c)); err != nil {
			return cerrors.Wrap(cerrors.Storage, "batching bm25 document", err)
		}
		count++
		if count%500 == 0 {
			if err := s.bleve.Batch(batch); err != nil {
				return cerrors.Wrap(cerrors.Storage, "flushing bm25 batch", err)
			}
			batch = s.bleve.NewBatch()
		}
	}
	if err := rows.Err(); err != nil {
		return cerrors.Wrap(cerrors.Storage, "iterating chunks for bm25 rebuild", err)
	}
	if err := s.bleve.Batch(batch); err != nil {
		return cerrors.Wrap(cerrors.Storage, "flushing final bm25 batch", err)
	}

	s.dirty = false
	return nil
}

// searchTextLocked evaluates BM25 over content/symbol_name with the
// supplied filters, returning at most limit results ordered by score. Called
// with s.mu held.
func (s *Store) searchTextLocked(ctx context.Context, terms string, q model.SearchQuery, limit int) ([]model.SearchResult, error) {
	if s.dirty {
		if err := s.rebuildBM25Locked(ctx); err != nil {
			return nil, err
		}
	}
	if s.bleve == nil {
		s.degradeOnce("bm25 index unavailable for search_text")
		return nil, nil
	}

	textQuery := bleve.NewDisjunctionQuery(
		bm25FieldQuery("content", terms),
		bm25FieldQuery("symbol_name", terms),
	)
	conjuncts := []bleve.Query{textQuery}
	conjuncts = append(conjuncts, bm25FilterQueries(q)...)

	var finalQuery bleve.Query = textQuery
	if len(conjuncts) > 1 {
		finalQuery = bleve.NewConjunctionQuery(conjuncts...)
	}

	req := bleve.NewSearchRequest(finalQuery)
	req.Size = limit
	req.IncludeLocations = true

	result, err := s.bleve.SearchInContext(ctx, req)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "bm25 search", err)
	}
	if len(result.Hits) == 0 {
		return nil, nil
	}

	ids := make([]string, len(result.Hits))
	scoreByID := make(map[string]float64, len(result.Hits))
	for i, hit := range result.Hits {
		ids[i] = hit.ID
		scoreByID[hit.ID] = hit.Score
	}

	chunks, err := s.fetchChunksByIDLocked(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(chunks))
	for _, id := range ids {
		c, ok := chunks[id]
		if !ok {
			continue
		}
		results = append(results, model.SearchResult{Chunk: c, Score: float32(scoreByID[id])})
	}
	return results, nil
}

func bm25FieldQuery(field, terms string) *bleve.MatchQuery {
	mq := bleve.NewMatchQuery(terms)
	mq.SetField(field)
	return mq
}

func bm25FilterQueries(q model.SearchQuery) []bleve.Query {
	var filters []bleve.Query
	if len(q.RepositoryIDs) > 0 {
		filters = append(filters, bm25TermSetQuery("repository_id", q.RepositoryIDs))
	}
	if len(q.Languages) > 0 {
		filters = append(filters, bm25TermSetQuery("language", q.Languages))
	}
	if len(q.NodeTypes) > 0 {
		values := make([]string, len(q.NodeTypes))
		for i, nt := range q.NodeTypes {
			values[i] = string(nt)
		}
		filters = append(filters, bm25TermSetQuery("node_type", values))
	}
	return filters
}

func bm25TermSetQuery(field string, values []string) bleve.Query {
	if len(values) == 1 {
		tq := bleve.NewTermQuery(values[0])
		tq.SetField(field)
		return tq
	}
	disjuncts := make([]bleve.Query, len(values))
	for i, v := range values {
		tq := bleve.NewTermQuery(v)
		tq.SetField(field)
		disjuncts[i] = tq
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}
