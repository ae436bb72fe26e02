package metastore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/codesearch-io/codesearch/internal/cerrors"
	"github.com/codesearch-io/codesearch/internal/model"
)

// FindHash returns the stored SHA-256 for (repoID, path), or ("", false,
// nil) if no record exists yet (a new file).
func (s *Store) FindHash(ctx context.Context, repoID, path string) (string, bool, error) {
	row := sq.Select("sha256").From("file_hashes").
		Where(sq.Eq{"repository_id": repoID, "file_path": path}).
		RunWith(s.db).QueryRowContext(ctx)

	var hash string
	if err := row.Scan(&hash); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, cerrors.Wrap(cerrors.Storage, "finding file hash", err)
	}
	return hash, true, nil
}

// UpsertHash records the current content hash for (repoID, path).
func (s *Store) UpsertHash(ctx context.Context, hash model.FileHash) error {
	_, err := sq.Insert("file_hashes").
		Columns("repository_id", "file_path", "sha256").
		Values(hash.RepositoryID, hash.FilePath, hash.SHA256).
		Options("OR REPLACE").
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "upserting file hash", err)
	}
	return nil
}

// AllPaths returns every repository-relative path with a recorded hash for
// repoID, used by the Indexer's deleted-file reconciliation pass.
func (s *Store) AllPaths(ctx context.Context, repoID string) ([]string, error) {
	rows, err := sq.Select("file_path").From("file_hashes").
		Where(sq.Eq{"repository_id": repoID}).RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "listing file hash paths", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, cerrors.Wrap(cerrors.Storage, "scanning file hash path", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// DeleteHash removes the recorded hash for one file, e.g. when the
// Indexer's reconciliation pass finds the file no longer exists.
func (s *Store) DeleteHash(ctx context.Context, repoID, path string) error {
	_, err := sq.Delete("file_hashes").
		Where(sq.Eq{"repository_id": repoID, "file_path": path}).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "deleting file hash", err)
	}
	return nil
}
