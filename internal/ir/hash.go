package ir

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/tripir/internal/value"
)

// DomainIR is the hash domain for document IDs.
// Version suffix enables future algorithm migration.
const DomainIR = "tripir/ir/v1"

// Record returns the document as a value.Record, the form hashed and stored.
func (d *IR) Record() (value.Record, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal IR: %w", err)
	}
	v, err := value.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal IR: %w", err)
	}
	rec, ok := v.(value.Record)
	if !ok {
		return nil, fmt.Errorf("marshal IR: expected object, got %s", value.KindOf(v))
	}
	return rec, nil
}

// MarshalCanonical encodes d as RFC 8785 canonical JSON.
func (d *IR) MarshalCanonical() ([]byte, error) {
	rec, err := d.Record()
	if err != nil {
		return nil, err
	}
	return value.MarshalCanonical(rec)
}

// DocumentID computes the content-addressed ID of d.
// Documents with the same canonical form share an ID regardless of how
// they were built or which front-end produced them.
func (d *IR) DocumentID() (string, error) {
	rec, err := d.Record()
	if err != nil {
		return "", fmt.Errorf("DocumentID: %w", err)
	}
	return value.HashCanonical(DomainIR, rec)
}

// MustDocumentID is like DocumentID but panics on error.
// Use only in tests or when inputs are known to be valid.
func (d *IR) MustDocumentID() string {
	id, err := d.DocumentID()
	if err != nil {
		panic(err)
	}
	return id
}
