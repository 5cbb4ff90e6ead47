package embedding

import (
	"bytes"
	"encoding/json"
)

// responseShape tags the embedding payload layouts the provider has used.
type responseShape int

const (
	shapeUnrecognized responseShape = iota
	// {"data": [{"embedding": [...]}]}
	shapeDataList
	// {"embedding": [...]}
	shapeEmbeddingList
	// {"embedding": {"values": [...]}}
	shapeEmbeddingValues
)

func (s responseShape) String() string {
	switch s {
	case shapeDataList:
		return "data_list"
	case shapeEmbeddingList:
		return "embedding_list"
	case shapeEmbeddingValues:
		return "embedding_values"
	default:
		return "unrecognized"
	}
}

// decodeResponse classifies body and extracts its vector. Any layout outside
// the known set, or a known layout holding non-numeric data, is
// shapeUnrecognized with a nil vector.
func decodeResponse(body []byte) (responseShape, Vector) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return shapeUnrecognized, nil
	}

	if raw, ok := top["data"]; ok {
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
			if emb, ok := items[0]["embedding"]; ok {
				var vec Vector
				if err := json.Unmarshal(emb, &vec); err != nil {
					return shapeUnrecognized, nil
				}
				return shapeDataList, vec
			}
		}
	}

	raw, ok := top["embedding"]
	if !ok {
		return shapeUnrecognized, nil
	}

	switch trimmed := bytes.TrimSpace(raw); {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var vec Vector
		if err := json.Unmarshal(trimmed, &vec); err != nil {
			return shapeUnrecognized, nil
		}
		return shapeEmbeddingList, vec
	case len(trimmed) > 0 && trimmed[0] == '{':
		var obj struct {
			Values *Vector `json:"values"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil || obj.Values == nil {
			return shapeUnrecognized, nil
		}
		return shapeEmbeddingValues, *obj.Values
	default:
		return shapeUnrecognized, nil
	}
}
