package fingerprint

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gitsnow/gitsnow/ir"
)

// SchemaFingerprint identifies the structural content of a set of schema objects
type SchemaFingerprint struct {
	Hash    string `json:"hash"` // SHA256 of the normalized object set
	Objects int    `json:"objects"`
}

// normalizedObject leaves out provenance and clause order, which do not
// change what gets deployed
type normalizedObject struct {
	Name       string        `json:"name"`
	Type       ir.ObjectType `json:"type"`
	Modifiers  []string      `json:"modifiers,omitempty"`
	Columns    []string      `json:"columns,omitempty"`
	Properties ir.Properties `json:"properties,omitempty"`
	Body       string        `json:"body,omitempty"`
}

// ComputeFingerprint hashes objects independently of their order and origin
func ComputeFingerprint(objects []*ir.SchemaObject) (*SchemaFingerprint, error) {
	normalized := make([]normalizedObject, 0, len(objects))
	for _, obj := range objects {
		modifiers := append([]string(nil), obj.Modifiers...)
		sort.Strings(modifiers)
		normalized = append(normalized, normalizedObject{
			Name:       obj.Key(),
			Type:       obj.Type,
			Modifiers:  modifiers,
			Columns:    obj.Columns,
			Properties: obj.Properties.Sorted(),
			Body:       obj.Body,
		})
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Name < normalized[j].Name
	})

	hash, err := hashObject(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to compute schema hash: %w", err)
	}

	return &SchemaFingerprint{Hash: hash, Objects: len(objects)}, nil
}

// hashObject computes a SHA256 hash of any object
func hashObject(obj interface{}) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Short returns the first 12 hex digits of the hash
func (f *SchemaFingerprint) Short() string {
	if len(f.Hash) > 12 {
		return f.Hash[:12]
	}
	return f.Hash
}

// String returns a human-readable representation of the fingerprint
func (f *SchemaFingerprint) String() string {
	return fmt.Sprintf("Schema fingerprint: %s (%d objects)", f.Short(), f.Objects)
}
