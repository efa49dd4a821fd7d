package chart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"chartgen/internal/models"
)

const (
	maxHistoryLimit = 100
	// column widths of chart_generations on mysql
	maxChartTypeLen = 64
	maxFileNameLen  = 255
)

// generationRow mirrors chart_generations; labels and series are JSON text.
type generationRow struct {
	ID        int64     `db:"id"`
	ChartType string    `db:"chart_type"`
	FileName  string    `db:"file_name"`
	Labels    string    `db:"labels"`
	Series    string    `db:"series"`
	Config    string    `db:"config"`
	CreatedAt time.Time `db:"created_at"`
}

const selectGenerations = `SELECT id, chart_type, file_name, labels, series, config, created_at FROM chart_generations`

func (s *Service) record(ctx context.Context, r *models.ChartResult) error {
	labels, err := json.Marshal(r.Labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	series, err := json.Marshal(r.Series)
	if err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO chart_generations (chart_type, file_name, labels, series, config, created_at)
		VALUES (:chart_type, :file_name, :labels, :series, :config, :created_at)
	`, generationRow{
		ChartType: truncateRunes(r.ChartType, maxChartTypeLen),
		FileName:  truncateRunes(r.FileName, maxFileNameLen),
		Labels:    string(labels),
		Series:    string(series),
		Config:    r.Config,
		CreatedAt: r.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert chart generation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("chart generation id: %w", err)
	}
	r.ID = id
	return nil
}

// ListRecent returns up to limit generations, newest first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*models.ChartResult, error) {
	if s.db == nil {
		return nil, ErrHistoryDisabled
	}
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	var rows []generationRow
	if err := s.db.SelectContext(ctx, &rows,
		selectGenerations+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("list chart generations: %w", err)
	}
	results := make([]*models.ChartResult, 0, len(rows))
	for _, row := range rows {
		r, err := row.result()
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Get returns one generation by id, or sql.ErrNoRows.
func (s *Service) Get(ctx context.Context, id int64) (*models.ChartResult, error) {
	if s.db == nil {
		return nil, ErrHistoryDisabled
	}
	if id <= 0 {
		return nil, errors.New("invalid chart id")
	}
	var row generationRow
	if err := s.db.GetContext(ctx, &row, selectGenerations+` WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get chart generation: %w", err)
	}
	return row.result()
}

func (row generationRow) result() (*models.ChartResult, error) {
	r := &models.ChartResult{
		ID:        row.ID,
		ChartType: row.ChartType,
		FileName:  row.FileName,
		Config:    row.Config,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.Labels), &r.Labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Series), &r.Series); err != nil {
		return nil, fmt.Errorf("decode series: %w", err)
	}
	return r, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
