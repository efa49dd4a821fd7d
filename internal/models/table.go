package models

// Table is the data extracted from the first sheet of an upload.
// Labels come from the header row and Series from the rows below it; the
// first column is dropped from both.
type Table struct {
	Labels []string `json:"labels"`
	Series [][]any  `json:"series"`
}
