package graphstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/codesearch-io/codesearch/internal/cerrors"
	"github.com/codesearch-io/codesearch/internal/model"
)

// SaveBatch transactionally upserts references by id.
func (s *Store) SaveBatch(ctx context.Context, refs []model.SymbolReference) error {
	if len(refs) == 0 {
		return nil
	}
	if s.readOnly {
		return cerrors.New(cerrors.InvalidInput, "graph store opened read-only")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "begin save_batch transaction", err)
	}
	defer tx.Rollback()

	for _, r := range refs {
		if r.CalleeSymbol == "" {
			return cerrors.New(cerrors.InvalidInput, fmt.Sprintf("reference %s has empty callee_symbol", r.ID))
		}
		_, err := sq.Insert(s.table).
			Options("OR REPLACE").
			Columns("id", "repository_id", "caller_symbol", "callee_symbol", "caller_file",
				"reference_file", "line", "ref_column", "reference_kind", "language",
				"caller_node_type", "enclosing_scope", "import_alias").
			Values(r.ID, r.RepositoryID, r.CallerSymbol, r.CalleeSymbol, r.CallerFile,
				r.ReferenceFile, r.Line, r.Column, string(r.ReferenceKind), r.Language,
				string(r.CallerNodeType), r.EnclosingScope, r.ImportAlias).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return cerrors.Wrap(cerrors.Storage, fmt.Sprintf("upserting reference %s", r.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return cerrors.Wrap(cerrors.Storage, "commit save_batch transaction", err)
	}

	s.invalidate()
	return nil
}

// DeleteByFilePath deletes every reference whose reference_file matches
// path within repoID, returning the count deleted.
func (s *Store) DeleteByFilePath(ctx context.Context, repoID, path string) (int, error) {
	if s.readOnly {
		return 0, cerrors.New(cerrors.InvalidInput, "graph store opened read-only")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := sq.Delete(s.table).
		Where(sq.Eq{"repository_id": repoID, "reference_file": path}).
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return 0, cerrors.Wrap(cerrors.Storage, "deleting references by file path", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, cerrors.Wrap(cerrors.Storage, "reading rows affected", err)
	}
	s.invalidate()
	return int(n), nil
}

// DeleteByRepository deletes every reference owned by repoID.
func (s *Store) DeleteByRepository(ctx context.Context, repoID string) error {
	if s.readOnly {
		return cerrors.New(cerrors.InvalidInput, "graph store opened read-only")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := sq.Delete(s.table).Where(sq.Eq{"repository_id": repoID}).RunWith(s.db).ExecContext(ctx); err != nil {
		return cerrors.Wrap(cerrors.Storage, "deleting references by repository", err)
	}
	s.invalidate()
	return nil
}
