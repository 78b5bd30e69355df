package identify

import "github.com/steelforge/takeoff/internal/model"

// Aggregate groups annotated parts into assemblies by their mark string, the
// natural join key at extraction time. Parts without a mark become loose
// parts. Assemblies appear in first-encounter order, each gets a fresh temp
// id back-filled onto its members, and a mark judged not meaningful is kept
// only as a suggestion.
func (e *Engine) Aggregate(parts []*model.ParsedPart) ([]*model.ParsedAssembly, []*model.ParsedPart) {
	var assemblies []*model.ParsedAssembly
	var loose []*model.ParsedPart
	byMark := make(map[string]*model.ParsedAssembly)

	for _, p := range parts {
		if p.AssemblyMark == "" {
			loose = append(loose, p)
			continue
		}

		asm := byMark[p.AssemblyMark]
		if asm == nil {
			asm = e.newAssembly(p.AssemblyMark)
			byMark[p.AssemblyMark] = asm
			assemblies = append(assemblies, asm)
		}

		p.TempAssemblyID = asm.TempID
		if p.Identified {
			asm.IdentifiedParts = append(asm.IdentifiedParts, p)
		} else {
			asm.UnidentifiedParts = append(asm.UnidentifiedParts, p)
		}
		asm.TotalWeight += p.WeightOrZero()
	}

	return assemblies, loose
}

func (e *Engine) newAssembly(mark string) *model.ParsedAssembly {
	asm := &model.ParsedAssembly{
		TempID:            e.newID(),
		IdentifiedParts:   []*model.ParsedPart{},
		UnidentifiedParts: []*model.ParsedPart{},
	}
	if e.rules.Meaningful(mark) {
		asm.Identified = true
		asm.Mark = mark
		asm.Name = mark
	} else {
		asm.SuggestedMark = mark
	}
	return asm
}
