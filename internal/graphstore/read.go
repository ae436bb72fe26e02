package graphstore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/codesearch-io/codesearch/internal/cerrors"
	"github.com/codesearch-io/codesearch/internal/model"
)

// QueryOptions narrows a find_callers/find_callees/find_by_file query by
// repository, language, or reference kind, and optionally caps the result
// count, per spec.md §4.6.
type QueryOptions struct {
	RepositoryID  string
	Language      string
	ReferenceKind model.ReferenceKind
	Limit         int
}

var refColumns = []string{
	"id", "repository_id", "caller_symbol", "callee_symbol", "caller_file",
	"reference_file", "line", "ref_column", "reference_kind", "language",
	"caller_node_type", "enclosing_scope", "import_alias",
}

func scanReferences(rows *sql.Rows) ([]model.SymbolReference, error) {
	defer rows.Close()
	var refs []model.SymbolReference
	for rows.Next() {
		var r model.SymbolReference
		var kind, nodeType string
		if err := rows.Scan(&r.ID, &r.RepositoryID, &r.CallerSymbol, &r.CalleeSymbol, &r.CallerFile,
			&r.ReferenceFile, &r.Line, &r.Column, &kind, &r.Language, &nodeType,
			&r.EnclosingScope, &r.ImportAlias); err != nil {
			return nil, cerrors.Wrap(cerrors.Storage, "scanning symbol reference row", err)
		}
		r.ReferenceKind = model.ReferenceKind(kind)
		r.CallerNodeType = model.NodeType(nodeType)
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "iterating symbol reference rows", err)
	}
	return refs, nil
}

func (s *Store) applyOptions(b sq.SelectBuilder, opts QueryOptions) sq.SelectBuilder {
	if opts.RepositoryID != "" {
		b = b.Where(sq.Eq{"repository_id": opts.RepositoryID})
	}
	if opts.Language != "" {
		b = b.Where(sq.Eq{"language": opts.Language})
	}
	if opts.ReferenceKind != "" {
		b = b.Where(sq.Eq{"reference_kind": string(opts.ReferenceKind)})
	}
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
	}
	return b
}

func (s *Store) cachedQuery(ctx context.Context, op, target string, opts QueryOptions, build func() sq.SelectBuilder) ([]model.SymbolReference, error) {
	key := cacheKey(op, target, opts.RepositoryID, opts.Language, string(opts.ReferenceKind), opts.Limit)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	rows, err := build().RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "running "+op+" query", err)
	}
	refs, err := scanReferences(rows)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, refs)
	return refs, nil
}

// FindCallers returns all references whose callee_symbol matches callee,
// ordered by (reference_file, line).
func (s *Store) FindCallers(ctx context.Context, callee string, opts QueryOptions) ([]model.SymbolReference, error) {
	return s.cachedQuery(ctx, "find_callers", callee, opts, func() sq.SelectBuilder {
		b := sq.Select(refColumns...).From(s.table).
			Where(sq.Eq{"callee_symbol": callee}).
			OrderBy("reference_file", "line")
		return s.applyOptions(b, opts)
	})
}

// FindCallees mirrors FindCallers by caller_symbol.
func (s *Store) FindCallees(ctx context.Context, caller string, opts QueryOptions) ([]model.SymbolReference, error) {
	return s.cachedQuery(ctx, "find_callees", caller, opts, func() sq.SelectBuilder {
		b := sq.Select(refColumns...).From(s.table).
			Where(sq.Eq{"caller_symbol": caller}).
			OrderBy("reference_file", "line")
		return s.applyOptions(b, opts)
	})
}

// FindByFile returns every reference whose reference_file matches path.
func (s *Store) FindByFile(ctx context.Context, path string, opts QueryOptions) ([]model.SymbolReference, error) {
	return s.cachedQuery(ctx, "find_by_file", path, opts, func() sq.SelectBuilder {
		b := sq.Select(refColumns...).From(s.table).
			Where(sq.Eq{"reference_file": path}).
			OrderBy("line")
		return s.applyOptions(b, opts)
	})
}

// FindByRepository returns every reference owned by repoID.
func (s *Store) FindByRepository(ctx context.Context, repoID string) ([]model.SymbolReference, error) {
	return s.cachedQuery(ctx, "find_by_repository", repoID, QueryOptions{}, func() sq.SelectBuilder {
		return sq.Select(refColumns...).From(s.table).
			Where(sq.Eq{"repository_id": repoID}).
			OrderBy("reference_file", "line")
	})
}

// FindCrossRepoReferences returns every reference to name across all
// repositories sharing this namespace's table, for cross-repo impact
// queries.
func (s *Store) FindCrossRepoReferences(ctx context.Context, name string) ([]model.SymbolReference, error) {
	return s.cachedQuery(ctx, "find_cross_repo", name, QueryOptions{}, func() sq.SelectBuilder {
		return sq.Select(refColumns...).From(s.table).
			Where(sq.Eq{"callee_symbol": name}).
			OrderBy("repository_id", "reference_file", "line")
	})
}

// Stats is the get_stats result: totals plus per-kind and per-language
// histograms.
type Stats struct {
	TotalReferences int
	DistinctCallers int
	DistinctCallees int
	ByKind          map[model.ReferenceKind]int
	ByLanguage      map[string]int
}

// GetStats computes the reference totals and histograms for one repository.
func (s *Store) GetStats(ctx context.Context, repoID string) (Stats, error) {
	stats := Stats{ByKind: map[model.ReferenceKind]int{}, ByLanguage: map[string]int{}}

	row := sq.Select("COUNT(*)", "COUNT(DISTINCT caller_symbol)", "COUNT(DISTINCT callee_symbol)").
		From(s.table).Where(sq.Eq{"repository_id": repoID}).RunWith(s.db).QueryRowContext(ctx)
	if err := row.Scan(&stats.TotalReferences, &stats.DistinctCallers, &stats.DistinctCallees); err != nil {
		return stats, cerrors.Wrap(cerrors.Storage, "scanning reference totals", err)
	}

	kindRows, err := sq.Select("reference_kind", "COUNT(*)").From(s.table).
		Where(sq.Eq{"repository_id": repoID}).GroupBy("reference_kind").RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return stats, cerrors.Wrap(cerrors.Storage, "querying per-kind histogram", err)
	}
	for kindRows.Next() {
		var kind string
		var n int
		if err := kindRows.Scan(&kind, &n); err != nil {
			kindRows.Close()
			return stats, cerrors.Wrap(cerrors.Storage, "scanning per-kind histogram row", err)
		}
		stats.ByKind[model.ReferenceKind(kind)] = n
	}
	kindRows.Close()

	langRows, err := sq.Select("language", "COUNT(*)").From(s.table).
		Where(sq.Eq{"repository_id": repoID}).GroupBy("language").RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return stats, cerrors.Wrap(cerrors.Storage, "querying per-language histogram", err)
	}
	for langRows.Next() {
		var lang string
		var n int
		if err := langRows.Scan(&lang, &n); err != nil {
			langRows.Close()
			return stats, cerrors.Wrap(cerrors.Storage, "scanning per-language histogram row", err)
		}
		stats.ByLanguage[lang] = n
	}
	langRows.Close()

	return stats, nil
}
