// File path: internal/sqlite/queries.go
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nicodishanthj/pathlight/internal/learn"
)

// GetStructure fetches a cached outline by key, incrementing its access count
// in the same transaction. A miss returns (nil, nil).
func (s *Store) GetStructure(ctx context.Context, key string) (*learn.StructureEntry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin structure lookup: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE topic_structures SET access_count = access_count + 1, updated_at = CURRENT_TIMESTAMP WHERE cache_key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("touch structure: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("touch structure: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	var row structureRow
	if err := tx.GetContext(ctx, &row,
		`SELECT cache_key, topic, weeks_json, estimated_hours, difficulty_level,
                        source_books_json, generation_model, content_version, access_count
                 FROM topic_structures WHERE cache_key = ?`, key); err != nil {
		return nil, fmt.Errorf("select structure: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit structure lookup: %w", err)
	}
	return row.toEntry()
}

// PutStructure inserts the entry, leaving an existing row's access count
// intact so a racing writer does not reset usage statistics.
func (s *Store) PutStructure(ctx context.Context, entry *learn.StructureEntry) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	if entry == nil || strings.TrimSpace(entry.CacheKey) == "" {
		return errors.New("structure entry requires a cache key")
	}
	weeks, err := json.Marshal(entry.Weeks)
	if err != nil {
		return fmt.Errorf("encode weeks: %w", err)
	}
	books, err := json.Marshal(entry.SourceBooks)
	if err != nil {
		return fmt.Errorf("encode source books: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO topic_structures
                        (cache_key, topic, weeks_json, estimated_hours, difficulty_level,
                         source_books_json, generation_model, content_version, access_count)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
                 ON CONFLICT(cache_key) DO UPDATE SET
                        topic = excluded.topic,
                        weeks_json = excluded.weeks_json,
                        estimated_hours = excluded.estimated_hours,
                        difficulty_level = excluded.difficulty_level,
                        source_books_json = excluded.source_books_json,
                        generation_model = excluded.generation_model,
                        content_version = excluded.content_version,
                        updated_at = CURRENT_TIMESTAMP`,
		entry.CacheKey, entry.Topic, string(weeks), entry.EstimatedHours,
		entry.DifficultyLevel, string(books), entry.GenerationModel,
		entry.ContentVersion, entry.AccessCount)
	if err != nil {
		return fmt.Errorf("upsert structure: %w", err)
	}
	return nil
}

// GetContent fetches cached section content by key, incrementing its access
// count. A miss returns (nil, nil).
func (s *Store) GetContent(ctx context.Context, key string) (*learn.ContentEntry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin content lookup: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE section_contents SET access_count = access_count + 1, updated_at = CURRENT_TIMESTAMP WHERE cache_key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("touch content: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("touch content: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}

	var row contentRow
	if err := tx.GetContext(ctx, &row,
		`SELECT cache_key, topic, section_id, section_title, doc_json,
                        generation_model, content_version, access_count
                 FROM section_contents WHERE cache_key = ?`, key); err != nil {
		return nil, fmt.Errorf("select content: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit content lookup: %w", err)
	}
	return row.toEntry()
}

// PutContent inserts the entry, preserving an existing row's access count.
func (s *Store) PutContent(ctx context.Context, entry *learn.ContentEntry) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	if entry == nil || strings.TrimSpace(entry.CacheKey) == "" {
		return errors.New("content entry requires a cache key")
	}
	doc, err := json.Marshal(entry.Doc)
	if err != nil {
		return fmt.Errorf("encode content doc: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO section_contents
                        (cache_key, topic, section_id, section_title, doc_json,
                         generation_model, content_version, access_count)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
                 ON CONFLICT(cache_key) DO UPDATE SET
                        topic = excluded.topic,
                        section_id = excluded.section_id,
                        section_title = excluded.section_title,
                        doc_json = excluded.doc_json,
                        generation_model = excluded.generation_model,
                        content_version = excluded.content_version,
                        updated_at = CURRENT_TIMESTAMP`,
		entry.CacheKey, entry.Topic, entry.SectionID, entry.SectionTitle, string(doc),
		entry.GenerationModel, entry.ContentVersion, entry.AccessCount)
	if err != nil {
		return fmt.Errorf("upsert content: %w", err)
	}
	return nil
}

// ReplacePath stores the user's learning path, replacing any prior path
// outright. One active path per user.
func (s *Store) ReplacePath(ctx context.Context, path *learn.LearningPath) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	if path == nil || strings.TrimSpace(path.UserID) == "" {
		return errors.New("learning path requires a user id")
	}
	encoded, err := json.Marshal(path)
	if err != nil {
		return fmt.Errorf("encode learning path: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO learning_paths (user_id, path_json, created_at)
                 VALUES (?, ?, CURRENT_TIMESTAMP)
                 ON CONFLICT(user_id) DO UPDATE SET
                        path_json = excluded.path_json,
                        created_at = CURRENT_TIMESTAMP`,
		path.UserID, string(encoded))
	if err != nil {
		return fmt.Errorf("replace learning path: %w", err)
	}
	return nil
}

// GetPath returns the stored learning path for the user, or (nil, nil) when
// none exists.
func (s *Store) GetPath(ctx context.Context, userID string) (*learn.LearningPath, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite store not initialised")
	}
	var encoded string
	err := s.db.GetContext(ctx, &encoded,
		`SELECT path_json FROM learning_paths WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select learning path: %w", err)
	}
	var path learn.LearningPath
	if err := json.Unmarshal([]byte(encoded), &path); err != nil {
		return nil, fmt.Errorf("decode learning path: %w", err)
	}
	return &path, nil
}

// DeleteBelowVersion removes cache entries older than the given content
// version from both caches, returning how many rows were dropped.
func (s *Store) DeleteBelowVersion(ctx context.Context, version int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("sqlite store not initialised")
	}
	var total int64
	for _, table := range []string{"topic_structures", "section_contents"} {
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE content_version < ?`, table), version)
		if err != nil {
			return total, fmt.Errorf("invalidate %s: %w", table, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("invalidate %s: %w", table, err)
		}
		total += affected
	}
	return total, nil
}
