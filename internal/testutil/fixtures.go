// Package testutil provides shared test data builders for the takeoff test
// suites.
package testutil

import (
	"github.com/steelforge/takeoff/internal/model"
)

// PartOption customizes a built part.
type PartOption func(*model.ParsedPart)

// WithWeight sets the part weight in kg.
func WithWeight(kg float64) PartOption {
	return func(p *model.ParsedPart) {
		p.Weight = &kg
	}
}

// WithSuggestion sets the precomputed suggested reference.
func WithSuggestion(ref string) PartOption {
	return func(p *model.ParsedPart) {
		p.SuggestedReference = ref
	}
}

// WithType sets the part type.
func WithType(t model.PartType) PartOption {
	return func(p *model.ParsedPart) {
		p.PartType = t
	}
}

// IdentifiedPart builds a part carrying an authoritative reference.
func IdentifiedPart(tempID, reference, description string, opts ...PartOption) *model.ParsedPart {
	p := &model.ParsedPart{
		TempID:        tempID,
		Identified:    true,
		PartReference: reference,
		Description:   description,
		PartType:      model.PartTypeBeam,
		Quantity:      1,
		Unit:          "EA",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// UnidentifiedPart builds a part awaiting operator identification.
func UnidentifiedPart(tempID, description string, opts ...PartOption) *model.ParsedPart {
	p := &model.ParsedPart{
		TempID:      tempID,
		Description: description,
		PartType:    model.PartTypePlate,
		Quantity:    1,
		Unit:        "EA",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Assembly builds an identified assembly from its member lists, back-filling
// temp ids and the total weight.
func Assembly(tempID, mark string, identified, unidentified []*model.ParsedPart) *model.ParsedAssembly {
	asm := &model.ParsedAssembly{
		TempID:            tempID,
		Identified:        true,
		Mark:              mark,
		Name:              mark,
		IdentifiedParts:   identified,
		UnidentifiedParts: unidentified,
	}
	for _, p := range identified {
		p.TempAssemblyID = tempID
		p.AssemblyMark = mark
	}
	for _, p := range unidentified {
		p.TempAssemblyID = tempID
		p.AssemblyMark = mark
	}
	asm.RecomputeTotalWeight()
	return asm
}

// ParseResult builds a recounted parse result from assemblies and loose
// parts.
func ParseResult(assemblies []*model.ParsedAssembly, loose ...*model.ParsedPart) *model.ParseResult {
	result := &model.ParseResult{
		FileType:   model.FormatSMLX,
		Assemblies: assemblies,
		LooseParts: loose,
	}
	result.Recount()
	return result
}

// SampleParseResult builds the stock staging fixture: one assembly holding an
// identified beam and an unidentified gusset, plus two loose unidentified
// parts carrying suggestions.
func SampleParseResult() *model.ParseResult {
	return ParseResult(
		[]*model.ParsedAssembly{
			Assembly("asm-1", "FRAME-A1",
				[]*model.ParsedPart{
					IdentifiedPart("part-1", "B1", "310UB40", WithWeight(241.2)),
				},
				[]*model.ParsedPart{
					UnidentifiedPart("part-2", "PL 10", WithSuggestion("PL10-1"), WithWeight(7.1)),
				},
			),
		},
		UnidentifiedPart("part-3", "PL 12", WithSuggestion("PL12-1")),
		UnidentifiedPart("part-4", "", WithSuggestion("PLATE-1")),
	)
}
