// Package documents loads and indexes the policy documents the assistant
// answers from. It is the only writer of stored embeddings.
package documents

import (
	"fmt"
	"os"
	"strings"

	"github.com/upb/storefront-assistant/models"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout accepted by `docs import`:
//
//	documents:
//	  - title: Returns
//	    body: Returns accepted within 30 days.
type SeedFile struct {
	Documents []SeedDocument `yaml:"documents"`
}

// SeedDocument is one document in a seed file
type SeedDocument struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

// LoadSeedFile reads and validates a seed file from disk
func LoadSeedFile(path string) ([]*models.PolicyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	docs, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return docs, nil
}

// ParseSeed decodes seed YAML. Every document needs a title and a body.
func ParseSeed(data []byte) ([]*models.PolicyDocument, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("unmarshal YAML: %w", err)
	}
	if len(seed.Documents) == 0 {
		return nil, fmt.Errorf("no documents defined")
	}

	docs := make([]*models.PolicyDocument, 0, len(seed.Documents))
	for i, d := range seed.Documents {
		title := strings.TrimSpace(d.Title)
		body := strings.TrimSpace(d.Body)
		if title == "" || body == "" {
			return nil, fmt.Errorf("document %d: title and body are required", i+1)
		}
		docs = append(docs, models.NewPolicyDocument(title, body))
	}
	return docs, nil
}
