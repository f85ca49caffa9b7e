package testutils

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/nbd-wtf/go-nostr"

	sharedtypes "github.com/fairway-collective/roundsync/app/shared/types"
)

// TestDataGenerator produces signed nostr events and content documents for
// integration tests.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed.
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	faker := gofakeit.New(uint64(s))

	return &TestDataGenerator{
		faker: faker,
		seed:  s,
	}
}

// Seed returns the seed, for reproducing a failed run.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

// GenerateKeyPair returns a fresh nostr secret/public key pair.
func (g *TestDataGenerator) GenerateKeyPair() (secretKey, pubKey string, err error) {
	secretKey = nostr.GeneratePrivateKey()
	pubKey, err = nostr.GetPublicKey(secretKey)
	if err != nil {
		return "", "", fmt.Errorf("derive public key: %w", err)
	}
	return secretKey, pubKey, nil
}

// CourseDocument generates a plausible embedded course document.
func (g *TestDataGenerator) CourseDocument() json.RawMessage {
	doc := map[string]any{
		"title":    fmt.Sprintf("%s %s", g.faker.City(), g.faker.RandomString([]string{"Park", "Meadows", "Ridge", "Hollow"})),
		"location": fmt.Sprintf("%s, %s", g.faker.City(), g.faker.StateAbr()),
		"holes":    g.faker.Number(9, 27),
	}
	b, _ := json.Marshal(doc)
	return b
}

// RulesDocument generates a plausible embedded rules document.
func (g *TestDataGenerator) RulesDocument() json.RawMessage {
	doc := map[string]any{
		"format":   g.faker.RandomString([]string{"stroke_play", "match_play", "doubles"}),
		"max_par":  g.faker.Number(3, 5),
		"mulligan": g.faker.Bool(),
	}
	b, _ := json.Marshal(doc)
	return b
}

// ContentHash hashes the canonical form of a JSON document the same way the
// join verifier recomputes declared hashes: compact encoding, object keys
// sorted, numbers kept as source literals.
func ContentHash(raw json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return ""
	}
	canonical, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// InitiationEventParams controls the shape of a generated round initiation
// event. Zero values fall back to generated content and computed hashes.
type InitiationEventParams struct {
	// SecretKey signs the event. A fresh key is generated when empty.
	SecretKey string
	// Course and Rules are the embedded documents. Generated when nil.
	Course json.RawMessage
	Rules  json.RawMessage
	// CourseHash and RulesHash override the computed tag values, for
	// producing deliberate mismatches.
	CourseHash string
	RulesHash  string
	// Date is the date tag value. Omitted when empty.
	Date string
	// Players become p tags in the given order.
	Players []string
	// ExtraTags are appended verbatim, for exercising unknown-tag handling.
	ExtraTags nostr.Tags
	// CreatedAt defaults to now.
	CreatedAt time.Time
}

// SignedInitiationEvent builds and signs a round initiation event whose
// declared hashes match its embedded content unless overridden.
func (g *TestDataGenerator) SignedInitiationEvent(p InitiationEventParams) (*nostr.Event, error) {
	if p.SecretKey == "" {
		sk, _, err := g.GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		p.SecretKey = sk
	}
	if p.Course == nil {
		p.Course = g.CourseDocument()
	}
	if p.Rules == nil {
		p.Rules = g.RulesDocument()
	}
	if p.CourseHash == "" {
		p.CourseHash = ContentHash(p.Course)
	}
	if p.RulesHash == "" {
		p.RulesHash = ContentHash(p.Rules)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	content, err := json.Marshal(struct {
		Course json.RawMessage `json:"course"`
		Rules  json.RawMessage `json:"rules"`
	}{p.Course, p.Rules})
	if err != nil {
		return nil, fmt.Errorf("marshal initiation content: %w", err)
	}

	tags := nostr.Tags{
		{"course_hash", p.CourseHash},
		{"rules_hash", p.RulesHash},
	}
	if p.Date != "" {
		tags = append(tags, nostr.Tag{"date", p.Date})
	}
	for _, player := range p.Players {
		tags = append(tags, nostr.Tag{"p", player})
	}
	tags = append(tags, p.ExtraTags...)

	evt := &nostr.Event{
		Kind:      sharedtypes.KindRoundInitiation,
		CreatedAt: nostr.Timestamp(p.CreatedAt.Unix()),
		Content:   string(content),
		Tags:      tags,
	}
	if err := evt.Sign(p.SecretKey); err != nil {
		return nil, fmt.Errorf("sign initiation event: %w", err)
	}
	return evt, nil
}

// CourseEventParams controls the shape of a generated course definition
// event.
type CourseEventParams struct {
	SecretKey string
	DTag      string
	Title     string
	Location  string
	CreatedAt time.Time
}

// SignedCourseEvent builds and signs an addressable course definition event.
func (g *TestDataGenerator) SignedCourseEvent(p CourseEventParams) (*nostr.Event, error) {
	if p.SecretKey == "" {
		sk, _, err := g.GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		p.SecretKey = sk
	}
	if p.Title == "" {
		p.Title = fmt.Sprintf("%s %s", g.faker.City(), g.faker.RandomString([]string{"Park", "Meadows", "Ridge", "Hollow"}))
	}
	if p.DTag == "" {
		p.DTag = g.faker.LetterN(12)
	}
	if p.Location == "" {
		p.Location = fmt.Sprintf("%s, %s", g.faker.City(), g.faker.StateAbr())
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	content, err := json.Marshal(map[string]any{
		"title":    p.Title,
		"location": p.Location,
		"holes":    g.faker.Number(9, 27),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal course content: %w", err)
	}

	evt := &nostr.Event{
		Kind:      sharedtypes.KindCourseDefinition,
		CreatedAt: nostr.Timestamp(p.CreatedAt.Unix()),
		Content:   string(content),
		Tags:      nostr.Tags{{"d", p.DTag}},
	}
	if err := evt.Sign(p.SecretKey); err != nil {
		return nil, fmt.Errorf("sign course event: %w", err)
	}
	return evt, nil
}
