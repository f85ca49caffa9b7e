package roundservice

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// FieldMismatch describes one advisory hash mismatch.
type FieldMismatch struct {
	Field    string
	Declared string
	Computed string
}

// VerifyReport carries the advisory outcome of content hash verification.
// A mismatch never fails the operation; the embedded content stays
// authoritative.
type VerifyReport struct {
	mismatches []FieldMismatch
}

// Clean reports whether every declared hash matched.
func (r VerifyReport) Clean() bool { return len(r.mismatches) == 0 }

// Mismatches returns the per-field mismatches, empty when clean.
func (r VerifyReport) Mismatches() []FieldMismatch { return r.mismatches }

// Warnings renders the mismatches as human-readable strings for result
// payloads.
func (r VerifyReport) Warnings() []string {
	if len(r.mismatches) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.mismatches))
	for _, m := range r.mismatches {
		out = append(out, fmt.Sprintf("%s content does not match its declared hash", m.Field))
	}
	return out
}

// initiationContent is the embedded document of an initiation event. Only
// the hashed subdocuments are pulled out; everything else passes through
// untouched in RawContent.
type initiationContent struct {
	Course json.RawMessage `json:"course"`
	Rules  json.RawMessage `json:"rules"`
}

// canonicalHash hashes the canonical form of a JSON document: compact,
// object keys sorted, numbers kept as their source literals. Canonical form
// keeps the hash stable across whitespace and key-order differences between
// producers. Empty input hashes to the empty string.
func canonicalHash(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	canonical, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("canonicalize document: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// verifyContentHashes compares the declared course and rules hashes against
// hashes recomputed from the embedded content. An absent declared hash
// verifies nothing; unparseable content counts as a mismatch for every
// declared hash, since the declaration cannot be confirmed.
func verifyContentHashes(content, declaredCourse, declaredRules string) VerifyReport {
	var report VerifyReport
	if declaredCourse == "" && declaredRules == "" {
		return report
	}

	var embedded initiationContent
	// A decode failure leaves both subdocuments empty, which the field
	// checks below treat as unconfirmable.
	_ = json.Unmarshal([]byte(content), &embedded)

	report.check("course", declaredCourse, embedded.Course)
	report.check("rules", declaredRules, embedded.Rules)
	return report
}

func (r *VerifyReport) check(field, declared string, raw json.RawMessage) {
	if declared == "" {
		return
	}
	computed, err := canonicalHash(raw)
	if err != nil {
		computed = ""
	}
	if computed != declared {
		r.mismatches = append(r.mismatches, FieldMismatch{
			Field:    field,
			Declared: declared,
			Computed: computed,
		})
	}
}
