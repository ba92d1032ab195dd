package settings

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is the persisted envelope around a Map. Every backend stores the
// option in this shape so a dump from one can be loaded into another.
type Document struct {
	ID          string `json:"id"`
	Value       Map    `json:"value"`
	Revision    string `json:"revision"`
	UpdatedAt   string `json:"updated_at"`
	UpdatedUnix int64  `json:"updated_unix"`
}

// NewDocument wraps m for storage. Unchecked entries are dropped and a fresh
// revision id is assigned.
func NewDocument(m Map) Document {
	now := time.Now()
	return Document{
		ID:          OptionName,
		Value:       m.Clone(),
		Revision:    uuid.New().String(),
		UpdatedAt:   now.UTC().Format("2006-01-02T15:04:05.000Z"),
		UpdatedUnix: now.Unix(),
	}
}

// MarshalDocument encodes m as a Document.
func MarshalDocument(m Map) ([]byte, error) {
	return json.Marshal(NewDocument(m))
}

// UnmarshalDocument decodes a Document and returns its Map. A document whose
// value is missing or null decodes to an empty Map.
func UnmarshalDocument(raw []byte) (Map, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", OptionName, err)
	}
	return doc.Value.Clone(), nil
}
