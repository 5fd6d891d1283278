// File path: internal/sqlite/types.go
package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/nicodishanthj/pathlight/internal/learn"
)

type structureRow struct {
	CacheKey        string  `db:"cache_key"`
	Topic           string  `db:"topic"`
	WeeksJSON       string  `db:"weeks_json"`
	EstimatedHours  int     `db:"estimated_hours"`
	DifficultyLevel *string `db:"difficulty_level"`
	SourceBooksJSON *string `db:"source_books_json"`
	GenerationModel *string `db:"generation_model"`
	ContentVersion  int     `db:"content_version"`
	AccessCount     int64   `db:"access_count"`
}

func (r structureRow) toEntry() (*learn.StructureEntry, error) {
	entry := &learn.StructureEntry{
		CacheKey:       r.CacheKey,
		Topic:          r.Topic,
		EstimatedHours: r.EstimatedHours,
		ContentVersion: r.ContentVersion,
		AccessCount:    r.AccessCount,
	}
	if err := json.Unmarshal([]byte(r.WeeksJSON), &entry.Weeks); err != nil {
		return nil, fmt.Errorf("decode weeks for %s: %w", r.CacheKey, err)
	}
	if r.DifficultyLevel != nil {
		entry.DifficultyLevel = *r.DifficultyLevel
	}
	if r.GenerationModel != nil {
		entry.GenerationModel = *r.GenerationModel
	}
	if r.SourceBooksJSON != nil && *r.SourceBooksJSON != "" {
		if err := json.Unmarshal([]byte(*r.SourceBooksJSON), &entry.SourceBooks); err != nil {
			return nil, fmt.Errorf("decode source books for %s: %w", r.CacheKey, err)
		}
	}
	return entry, nil
}

type contentRow struct {
	CacheKey        string  `db:"cache_key"`
	Topic           string  `db:"topic"`
	SectionID       string  `db:"section_id"`
	SectionTitle    string  `db:"section_title"`
	DocJSON         string  `db:"doc_json"`
	GenerationModel *string `db:"generation_model"`
	ContentVersion  int     `db:"content_version"`
	AccessCount     int64   `db:"access_count"`
}

func (r contentRow) toEntry() (*learn.ContentEntry, error) {
	entry := &learn.ContentEntry{
		CacheKey:       r.CacheKey,
		Topic:          r.Topic,
		SectionID:      r.SectionID,
		SectionTitle:   r.SectionTitle,
		ContentVersion: r.ContentVersion,
		AccessCount:    r.AccessCount,
	}
	if err := json.Unmarshal([]byte(r.DocJSON), &entry.Doc); err != nil {
		return nil, fmt.Errorf("decode content doc for %s: %w", r.CacheKey, err)
	}
	if r.GenerationModel != nil {
		entry.GenerationModel = *r.GenerationModel
	}
	return entry, nil
}
