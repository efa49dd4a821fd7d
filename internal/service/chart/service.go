package chart

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chartgen/internal/models"
	"chartgen/internal/prompt"
	"chartgen/internal/spreadsheet"

	"github.com/jmoiron/sqlx"
)

// Generator turns a prompt into chart configuration text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrHistoryDisabled is returned by history reads when no database is configured.
var ErrHistoryDisabled = errors.New("chart history is not enabled")

// Stage names used when wrapping pipeline errors.
const (
	StageExtract  = "extract"
	StagePrompt   = "prompt"
	StageGenerate = "generate"
)

// StageError records which pipeline step failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// Service runs the upload → table → prompt → model pipeline and keeps an
// optional history of generated configurations.
type Service struct {
	db        *sqlx.DB
	generator Generator
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds a chart service. db may be nil to disable history.
func NewService(generator Generator, db *sqlx.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, generator: generator, logger: logger, now: time.Now}
}

// HistoryEnabled reports whether generations are being recorded.
func (s *Service) HistoryEnabled() bool {
	return s.db != nil
}

// Generate extracts the first sheet of upload, builds the prompt for
// chartType and asks the model for a configuration.
func (s *Service) Generate(ctx context.Context, upload models.Upload, chartType string) (*models.ChartResult, error) {
	if s.generator == nil {
		return nil, errors.New("chart generator not configured")
	}
	table, err := spreadsheet.ExtractFile(upload.StoredPath)
	if err != nil {
		return nil, &StageError{Stage: StageExtract, Err: err}
	}
	text, err := prompt.Build(chartType, table)
	if err != nil {
		return nil, &StageError{Stage: StagePrompt, Err: err}
	}
	config, err := s.generator.Generate(ctx, text)
	if err != nil {
		return nil, &StageError{Stage: StageGenerate, Err: err}
	}

	result := &models.ChartResult{
		ChartType: chartType,
		FileName:  upload.FileName,
		Labels:    table.Labels,
		Series:    table.Series,
		Config:    config,
		CreatedAt: s.now().UTC(),
	}
	if s.db != nil {
		if err := s.record(ctx, result); err != nil {
			s.logger.Warn("record chart generation failed", "error", err)
		}
	}
	return result, nil
}
