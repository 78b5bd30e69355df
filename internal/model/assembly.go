package model

// ParsedAssembly is a named grouping of parts built and shipped as one unit.
// Mark and Name stay empty until the assembly is identified; SuggestedMark
// keeps the original mark for operator reference when the mark was judged not
// meaningful.
type ParsedAssembly struct {
	TempID        string `json:"tempAssemblyId"`
	Identified    bool   `json:"isIdentified"`
	Mark          string `json:"assemblyMark,omitempty"`
	Name          string `json:"assemblyName,omitempty"`
	SuggestedMark string `json:"suggestedAssemblyMark,omitempty"`

	IdentifiedParts   []*ParsedPart `json:"identifiedParts"`
	UnidentifiedParts []*ParsedPart `json:"unidentifiedParts"`

	// TotalWeight is the sum of all member part weights, identified and
	// unidentified, with missing weights counted as zero.
	TotalWeight float64 `json:"totalWeight"`
}

// PartCount returns the number of member parts across both lists.
func (a *ParsedAssembly) PartCount() int {
	return len(a.IdentifiedParts) + len(a.UnidentifiedParts)
}

// RecomputeTotalWeight re-derives TotalWeight from the member lists.
func (a *ParsedAssembly) RecomputeTotalWeight() {
	total := 0.0
	for _, p := range a.IdentifiedParts {
		total += p.WeightOrZero()
	}
	for _, p := range a.UnidentifiedParts {
		total += p.WeightOrZero()
	}
	a.TotalWeight = total
}

// Repartition moves parts whose status changed to Identified from the
// unidentified list to the identified list. Order within each list is
// preserved.
func (a *ParsedAssembly) Repartition() {
	remaining := a.UnidentifiedParts[:0]
	for _, p := range a.UnidentifiedParts {
		if p.Identified {
			a.IdentifiedParts = append(a.IdentifiedParts, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	a.UnidentifiedParts = remaining
}
