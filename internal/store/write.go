package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codesearch-io/codesearch/internal/cerrors"
	"github.com/codesearch-io/codesearch/internal/model"
)

// SaveBatch persists chunks and their embeddings transactionally: on
// conflict by id, rows are replaced. Marks the BM25 index dirty.
func (s *Store) SaveBatch(ctx context.Context, chunks []model.CodeChunk, embeddings []model.Embedding) error {
	if len(chunks) == 0 {
		return nil
	}
	if s.readOnly {
		return cerrors.New(cerrors.InvalidInput, "chunk store opened read-only")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "begin save_batch transaction", err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (id, repository_id, file_path, content, start_line, end_line, language, node_type, symbol_name, parent_symbol)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.chunksTbl))
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "prepare chunk upsert", err)
	}
	defer upsert.Close()

	for _, c := range chunks {
		if _, err := upsert.ExecContext(ctx, c.ID, c.RepositoryID, c.FilePath, c.Content, c.StartLine, c.EndLine, c.Language, string(c.NodeType), c.SymbolName, c.ParentSymbol); err != nil {
			return cerrors.Wrap(cerrors.Storage, fmt.Sprintf("upserting chunk %s", c.ID), err)
		}
	}

	if err := s.upsertVectorsLocked(ctx, tx, embeddings); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return cerrors.Wrap(cerrors.Storage, "commit save_batch transaction", err)
	}

	s.dirty = true
	return nil
}

// upsertVectorsLocked mirrors the teacher's vector_index.go delete-then-insert
// pattern: vec0 virtual tables don't support INSERT OR REPLACE.
func (s *Store) upsertVectorsLocked(ctx context.Context, tx *sql.Tx, embeddings []model.Embedding) error {
	if len(embeddings) == 0 {
		return nil
	}

	del, err := tx.PrepareContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE chunk_id = ?", s.vecTbl))
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "prepare vector delete", err)
	}
	defer del.Close()

	ins, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (chunk_id, embedding) VALUES (?, ?)", s.vecTbl))
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "prepare vector insert", err)
	}
	defer ins.Close()

	for _, e := range embeddings {
		if _, err := del.ExecContext(ctx, e.ChunkID); err != nil {
			return cerrors.Wrap(cerrors.Storage, fmt.Sprintf("deleting stale vector for %s", e.ChunkID), err)
		}
		blob, err := serializeEmbedding(e.Vector)
		if err != nil {
			return cerrors.Wrap(cerrors.Embedding, fmt.Sprintf("serializing vector for %s", e.ChunkID), err)
		}
		if _, err := ins.ExecContext(ctx, e.ChunkID, blob); err != nil {
			return cerrors.Wrap(cerrors.Storage, fmt.Sprintf("inserting vector for %s", e.ChunkID), err)
		}
	}
	return nil
}

// DeleteByRepository deletes every chunk and vector owned by repoID.
func (s *Store) DeleteByRepository(ctx context.Context, repoID string) error {
	return s.deleteWhere(ctx, "repository_id = ?", repoID)
}

// DeleteByFilePath deletes every chunk and vector for one file within a
// repository.
func (s *Store) DeleteByFilePath(ctx context.Context, repoID, filePath string) error {
	return s.deleteWhere(ctx, "repository_id = ? AND file_path = ?", repoID, filePath)
}

// Delete removes a single chunk (and its vector) by id.
func (s *Store) Delete(ctx context.Context, chunkID string) error {
	return s.deleteWhere(ctx, "id = ?", chunkID)
}

func (s *Store) deleteWhere(ctx context.Context, where string, args ...any) error {
	if s.readOnly {
		return cerrors.New(cerrors.InvalidInput, "chunk store opened read-only")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "begin delete transaction", err)
	}
	defer tx.Rollback()

	idRows, err := tx.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s WHERE %s", s.chunksTbl, where), args...)
	if err != nil {
		return cerrors.Wrap(cerrors.Storage, "selecting chunk ids for delete", err)
	}
	var ids []string
	for idRows.Next() {
		var id string
		if err := idRows.Scan(&id); err != nil {
			idRows.Close()
			return cerrors.Wrap(cerrors.Storage, "scanning chunk id for delete", err)
		}
		ids = append(ids, id)
	}
	idRows.Close()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", s.chunksTbl, where), args...); err != nil {
		return cerrors.Wrap(cerrors.Storage, "deleting chunks", err)
	}

	if len(ids) > 0 {
		delVec, err := tx.PrepareContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE chunk_id = ?", s.vecTbl))
		if err != nil {
			return cerrors.Wrap(cerrors.Storage, "prepare vector delete", err)
		}
		defer delVec.Close()
		for _, id := range ids {
			if _, err := delVec.ExecContext(ctx, id); err != nil {
				return cerrors.Wrap(cerrors.Storage, fmt.Sprintf("deleting vector for %s", id), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return cerrors.Wrap(cerrors.Storage, "commit delete transaction", err)
	}

	s.dirty = true
	return nil
}
