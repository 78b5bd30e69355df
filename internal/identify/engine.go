// Package identify classifies extracted parts and assemblies as identified
// or unidentified, generates deterministic suggested references for whatever
// lacks an authoritative mark, and groups parts into assemblies.
package identify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/steelforge/takeoff/internal/model"
)

// suggestionKeyMaxLen caps the description-derived suggestion key.
const suggestionKeyMaxLen = 20

var nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]+`)

// MarkRules decides whether an assembly mark is meaningful or looks
// machine-generated. The thresholds are sample-data heuristics, so they stay
// configurable rather than hard-coded.
type MarkRules struct {
	// MinLength is the shortest mark still judged meaningful.
	MinLength int
	// AutoPrefixes are mark prefixes treated as machine-generated,
	// case-insensitive.
	AutoPrefixes []string
}

// DefaultMarkRules returns the stock heuristic: marks of one or two
// characters, plain integers, and ASM_/AUTO_ prefixed marks are not
// meaningful.
func DefaultMarkRules() MarkRules {
	return MarkRules{
		MinLength:    3,
		AutoPrefixes: []string{"ASM_", "AUTO_"},
	}
}

// Meaningful reports whether mark looks operator-authored.
func (r MarkRules) Meaningful(mark string) bool {
	m := strings.TrimSpace(mark)
	if m == "" || len(m) < r.MinLength {
		return false
	}
	if _, err := strconv.Atoi(m); err == nil {
		return false
	}
	for _, prefix := range r.AutoPrefixes {
		if len(m) >= len(prefix) && strings.EqualFold(m[:len(prefix)], prefix) {
			return false
		}
	}
	return true
}

// Engine annotates one parse operation. Suggestion counters are seeded per
// engine, so references are stable and increasing in visit order; create a
// fresh engine for each parse.
type Engine struct {
	rules    MarkRules
	counters map[string]int
	newID    func() string
}

// NewEngine creates an identification engine for a single parse operation.
func NewEngine(rules MarkRules) *Engine {
	return &Engine{
		rules:    rules,
		counters: make(map[string]int),
		newID:    uuid.NewString,
	}
}

// AnnotateParts assigns each part a temp id, settles its identification
// status, and generates a suggested reference for every unidentified part.
// A part is identified exactly when extraction resolved an authoritative
// reference.
func (e *Engine) AnnotateParts(parts []*model.ParsedPart) {
	for _, p := range parts {
		p.TempID = e.newID()
		p.Identified = p.PartReference != ""
		if !p.Identified {
			p.SuggestedReference = e.nextReference(p)
		}
	}
}

func (e *Engine) nextReference(p *model.ParsedPart) string {
	key := suggestionKey(p)
	e.counters[key]++
	return fmt.Sprintf("%s-%d", key, e.counters[key])
}

// suggestionKey derives the counter key for a part: fasteners key on their
// family, everything else on the cleaned description, falling back to the
// part type.
func suggestionKey(p *model.ParsedPart) string {
	switch p.PartType {
	case model.PartTypeBolt:
		return "BOLT"
	case model.PartTypeNut:
		return "NUT"
	case model.PartTypeWasher:
		return "WASHER"
	case model.PartTypeAnchor:
		return "ANCHOR"
	case model.PartTypeFastener:
		return "FASTENER"
	}

	key := nonAlphanumeric.ReplaceAllString(strings.ToUpper(p.Description), "")
	if key == "" {
		key = strings.ToUpper(string(p.PartType))
	}
	if len(key) > suggestionKeyMaxLen {
		key = key[:suggestionKeyMaxLen]
	}
	return key
}
