package models

import "time"

// ChartResult is the outcome of one generation request.
type ChartResult struct {
	ID        int64     `json:"id,omitempty"`
	ChartType string    `json:"chart_type"`
	FileName  string    `json:"file_name"`
	Labels    []string  `json:"labels"`
	Series    [][]any   `json:"series"`
	Config    string    `json:"config"`
	CreatedAt time.Time `json:"created_at"`
}
