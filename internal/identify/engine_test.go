package identify

import (
	"fmt"
	"testing"

	"github.com/steelforge/takeoff/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tmp-%d", n)
	}
}

func TestMarkRulesMeaningful(t *testing.T) {
	rules := DefaultMarkRules()

	tests := []struct {
		mark string
		want bool
	}{
		{"FRAME-A1", true},
		{"A1", false},
		{"", false},
		{"   ", false},
		{"12345", false},
		{"ASM_42", false},
		{"asm_42", false},
		{"AUTO_7", false},
		{"ASSEMBLY-1", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, rules.Meaningful(tt.mark), "mark %q", tt.mark)
	}
}

func TestAnnotatePartsStatusAndSuggestions(t *testing.T) {
	parts := []*model.ParsedPart{
		{PartReference: "B1", Description: "310UB40", PartType: model.PartTypeBeam},
		{Description: "310UB40", PartType: model.PartTypeBeam},
		{Description: "310UB40", PartType: model.PartTypeBeam},
		{Description: "PL 10 Gusset", PartType: model.PartTypePlate},
		{PartType: model.PartTypePlate},
		{Description: "M20 Nut", PartType: model.PartTypeNut},
	}

	e := NewEngine(DefaultMarkRules())
	e.AnnotateParts(parts)

	for i, p := range parts {
		assert.NotEmpty(t, p.TempID, "part %d temp id", i)
	}

	assert.True(t, parts[0].Identified)
	assert.Empty(t, parts[0].SuggestedReference)

	// Same description shares one counter; suffixes increase in visit order.
	assert.Equal(t, "310UB40-1", parts[1].SuggestedReference)
	assert.Equal(t, "310UB40-2", parts[2].SuggestedReference)

	// Description is cleaned and upper-cased.
	assert.Equal(t, "PL10GUSSET-1", parts[3].SuggestedReference)

	// No description falls back to the part type.
	assert.Equal(t, "PLATE-1", parts[4].SuggestedReference)

	// Fasteners key on their family regardless of description.
	assert.Equal(t, "NUT-1", parts[5].SuggestedReference)
}

func TestAnnotatePartsTruncatesLongKeys(t *testing.T) {
	parts := []*model.ParsedPart{
		{Description: "A VERY LONG DESCRIPTION OF A STRUCTURAL MEMBER", PartType: model.PartTypeMember},
	}

	e := NewEngine(DefaultMarkRules())
	e.AnnotateParts(parts)

	assert.Equal(t, "AVERYLONGDESCRIPTION-1", parts[0].SuggestedReference)
}

func TestAnnotatePartsDeterministic(t *testing.T) {
	build := func() []*model.ParsedPart {
		return []*model.ParsedPart{
			{Description: "310UB40", PartType: model.PartTypeBeam},
			{Description: "PFC 150", PartType: model.PartTypeBeam},
			{Description: "310UB40", PartType: model.PartTypeBeam},
		}
	}

	first := build()
	NewEngine(DefaultMarkRules()).AnnotateParts(first)

	second := build()
	NewEngine(DefaultMarkRules()).AnnotateParts(second)

	for i := range first {
		assert.Equal(t, first[i].SuggestedReference, second[i].SuggestedReference, "part %d", i)
	}
}

func TestAggregate(t *testing.T) {
	w := func(v float64) *float64 { return &v }

	parts := []*model.ParsedPart{
		{PartReference: "B1", AssemblyMark: "FRAME-A1", Weight: w(100)},
		{AssemblyMark: "FRAME-A1", Weight: w(50), Description: "PL 10"},
		{PartReference: "B2", AssemblyMark: "ASM_7", Weight: w(80)},
		{PartReference: "C1"},
	}

	e := NewEngine(DefaultMarkRules())
	e.AnnotateParts(parts)
	assemblies, loose := e.Aggregate(parts)

	require.Len(t, assemblies, 2)
	require.Len(t, loose, 1)

	frame := assemblies[0]
	assert.True(t, frame.Identified)
	assert.Equal(t, "FRAME-A1", frame.Mark)
	assert.Equal(t, "FRAME-A1", frame.Name)
	assert.Empty(t, frame.SuggestedMark)
	assert.Len(t, frame.IdentifiedParts, 1)
	assert.Len(t, frame.UnidentifiedParts, 1)
	assert.InDelta(t, 150, frame.TotalWeight, 0.001)

	// Machine-generated marks survive only as suggestions.
	synthetic := assemblies[1]
	assert.False(t, synthetic.Identified)
	assert.Empty(t, synthetic.Mark)
	assert.Equal(t, "ASM_7", synthetic.SuggestedMark)

	// Temp ids are back-filled onto members.
	require.NotEmpty(t, frame.TempID)
	assert.Equal(t, frame.TempID, parts[0].TempAssemblyID)
	assert.Equal(t, frame.TempID, parts[1].TempAssemblyID)
	assert.Empty(t, parts[3].TempAssemblyID)
}

func TestAggregateScenarioCounts(t *testing.T) {
	parts := []*model.ParsedPart{
		{PartReference: "B1", AssemblyMark: "A1", Description: "310UB40"},
		{PartReference: "B2", AssemblyMark: "A1", Description: "310UB40"},
		{PartReference: "B3", AssemblyMark: "A1", Description: "310UB40"},
		{PartReference: "P1", AssemblyMark: "A1", Description: "PL 10"},
		{Description: "PL 12", PartType: model.PartTypePlate},
		{PartType: model.PartTypePlate},
	}

	e := NewEngine(DefaultMarkRules())
	e.newID = sequentialIDs()
	e.AnnotateParts(parts)
	assemblies, loose := e.Aggregate(parts)

	result := &model.ParseResult{Assemblies: assemblies, LooseParts: loose}
	result.Recount()

	assert.Equal(t, 6, result.TotalElementCount)
	assert.Equal(t, 4, result.IdentifiedCount)
	assert.Equal(t, 2, result.UnidentifiedCount)
	assert.Equal(t, 1, result.AssemblyCount)

	require.Len(t, assemblies, 1)
	assert.Len(t, assemblies[0].IdentifiedParts, 4)
	assert.Empty(t, assemblies[0].UnidentifiedParts)

	require.Len(t, loose, 2)
	for _, p := range loose {
		assert.False(t, p.Identified)
		assert.NotEmpty(t, p.SuggestedReference)
	}
}
