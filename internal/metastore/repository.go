package metastore

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/codesearch-io/codesearch/internal/cerrors"
	"github.com/codesearch-io/codesearch/internal/model"
)

// FindByPath looks up a Repository by its canonicalised absolute path.
// Returns (zero, false, nil) when no record exists.
func (s *Store) FindByPath(ctx context.Context, path string) (model.Repository, bool, error) {
	row := sq.Select("id", "name", "path", "created_at", "updated_at", "chunk_count", "file_count",
		"vector_store_tag", "namespace").
		From("repositories").Where(sq.Eq{"path": path}).RunWith(s.db).QueryRowContext(ctx)

	var r model.Repository
	if err := row.Scan(&r.ID, &r.Name, &r.Path, &r.CreatedAt, &r.UpdatedAt, &r.ChunkCount, &r.FileCount,
		&r.VectorStoreTag, &r.Namespace); err != nil {
		if err == sql.ErrNoRows {
			return model.Repository{}, false, nil
		}
		return model.Repository{}, false, cerrors.Wrap(cerrors.Storage, "finding repository by path", err)
	}

	stats, err := s.loadLanguageStats(ctx, r.ID)
	if err != nil {
		return model.Repository{}, false, err
	}
	r.LanguageStats = stats
	return r, true, nil
}

// FindByID looks up a Repository by its id. Returns (zero, false, nil) when
// no record exists.
func (s *Store) FindByID(ctx context.Context, id string) (model.Repository, bool, error) {
	row := sq.Select("id", "name", "path", "created_at", "updated_at", "chunk_count", "file_count",
		"vector_store_tag", "namespace").
		From("repositories").Where(sq.Eq{"id": id}).RunWith(s.db).QueryRowContext(ctx)

	var r model.Repository
	if err := row.Scan(&r.ID, &r.Name, &r.Path, &r.CreatedAt, &r.UpdatedAt, &r.ChunkCount, &r.FileCount,
		&r.VectorStoreTag, &r.Namespace); err != nil {
		if err == sql.ErrNoRows {
			return model.Repository{}, false, nil
		}
		return model.Repository{}, false, cerrors.Wrap(cerrors.Storage, "finding repository by id", err)
	}

	stats, err := s.loadLanguageStats(ctx, r.ID)
	if err != nil {
		return model.Repository{}, false, err
	}
	r.LanguageStats = stats
	return r, true, nil
}

// ListRepositories returns every Repository record, ordered by name.
func (s *Store) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	rows, err := sq.Select("id", "name", "path", "created_at", "updated_at", "chunk_count", "file_count",
		"vector_store_tag", "namespace").
		From("repositories").OrderBy("name").RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "listing repositories", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		var r model.Repository
		if err := rows.Scan(&r.ID, &r.Name, &r.Path, &r.CreatedAt, &r.UpdatedAt, &r.ChunkCount, &r.FileCount,
			&r.VectorStoreTag, &r.Namespace); err != nil {
			return nil, cerrors.Wrap(cerrors.Storage, "scanning repository row", err)
		}
		repos = append(repos, r)
	}
	if err := rows.Err(); err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "iterating repository rows", err)
	}

	for i := range repos {
		stats, err := s.loadLanguageStats(ctx, repos[i].ID)
		if err != nil {
			return nil, err
		}
		repos[i].LanguageStats = stats
	}
	return repos, nil
}

// Create inserts a new Repository record with a fresh id and returns it.
func (s *Store) Create(ctx context.Context, name, path string, namespace string, createdAt int64) (model.Repository, error) {
	r := model.Repository{
		ID:        uuid.NewString(),
		Name:      name,
		Path:      path,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
		Namespace: namespace,
	}
	_, err := sq.Insert("repositories").
		Columns("id", "name", "path", "created_at", "updated_at", "chunk_count", "file_count",
			"vector_store_tag", "namespace").
		Values(r.ID, r.Name, r.Path, r.CreatedAt, r.UpdatedAt, 0, 0, "", r.Namespace).
		RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return model.Repository{}, cerrors.Wrap(cerrors.Storage, "creating repository", err)
	}
	return r, nil
}

// UpdateStats overwrites chunk_count, file_count, updated_at, and the
// per-language file-count histogram for a repository, as the Indexer does
// after every run.
func (s *Store) UpdateStats(ctx context.Context, repoID string, chunkCount, fileCount int, updatedAt int64, languageStats map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "begin update_stats transaction", err)
	}
	defer tx.Rollback()

	_, err = sq.Update("repositories").
		Set("chunk_count", chunkCount).
		Set("file_count", fileCount).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": repoID}).
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "updating repository stats", err)
	}

	if _, err := sq.Delete("repository_language_stats").Where(sq.Eq{"repository_id": repoID}).RunWith(tx).ExecContext(ctx); err != nil {
		return cerrors.Wrap(cerrors.Storage, "clearing language stats", err)
	}
	for lang, count := range languageStats {
		if _, err := sq.Insert("repository_language_stats").
			Columns("repository_id", "language", "file_count").
			Values(repoID, lang, count).
			RunWith(tx).ExecContext(ctx); err != nil {
			return cerrors.Wrap(cerrors.Storage, "inserting language stat", err)
		}
	}

	return tx.Commit()
}

// DeleteRepository removes the Repository record, its language stats, and
// its file hashes. Callers must also delete the repository's chunks
// (Chunk Store) and references (Call-Graph Store); this store only owns
// what this package persists.
func (s *Store) DeleteRepository(ctx context.Context, repoID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "begin delete_repository transaction", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"file_hashes", "repository_language_stats", "repositories"} {
		column := "repository_id"
		if table == "repositories" {
			column = "id"
		}
		if _, err := sq.Delete(table).Where(sq.Eq{column: repoID}).RunWith(tx).ExecContext(ctx); err != nil {
			return cerrors.Wrap(cerrors.Storage, "deleting from "+table, err)
		}
	}

	return tx.Commit()
}

func (s *Store) loadLanguageStats(ctx context.Context, repoID string) (map[string]int, error) {
	rows, err := sq.Select("language", "file_count").From("repository_language_stats").
		Where(sq.Eq{"repository_id": repoID}).RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, cerrors.Wrap(cerrors.Storage, "loading language stats", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var lang string
		var count int
		if err := rows.Scan(&lang, &count); err != nil {
			return nil, cerrors.Wrap(cerrors.Storage, "scanning language stat row", err)
		}
		stats[lang] = count
	}
	return stats, rows.Err()
}
