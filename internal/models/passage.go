package models

// Passage is one embedded window of an ingested file.
type Passage struct {
	ID     string    `json:"id"`
	Source string    `json:"source"`
	Index  int       `json:"index"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}
