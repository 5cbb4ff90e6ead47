package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// PolicyDocument is a store policy text the assistant can cite.
// EmbeddingVector holds a JSON-encoded []float64 and is nil until the document is embedded.
type PolicyDocument struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Body            string    `json:"body" db:"body"`
	EmbeddingVector *string   `json:"-" db:"embedding_vector"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the PolicyDocument model
func (PolicyDocument) TableName() string {
	return "policy_documents"
}

// NewPolicyDocument creates a new PolicyDocument without an embedding
func NewPolicyDocument(title, body string) *PolicyDocument {
	return &PolicyDocument{
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
}

// HasEmbedding reports whether a serialized embedding is stored
func (d *PolicyDocument) HasEmbedding() bool {
	return d.EmbeddingVector != nil && *d.EmbeddingVector != ""
}

// Embedding parses the stored embedding. A nil document embedding, a JSON
// error, or an empty array is reported as an error.
func (d *PolicyDocument) Embedding() ([]float64, error) {
	if !d.HasEmbedding() {
		return nil, fmt.Errorf("document %d has no embedding", d.ID)
	}
	var vec []float64
	if err := json.Unmarshal([]byte(*d.EmbeddingVector), &vec); err != nil {
		return nil, fmt.Errorf("document %d embedding is malformed: %w", d.ID, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("document %d embedding is empty", d.ID)
	}
	return vec, nil
}

// EncodeEmbedding serializes a vector into the stored column format
func EncodeEmbedding(vec []float64) (string, error) {
	data, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("failed to encode embedding: %w", err)
	}
	return string(data), nil
}
