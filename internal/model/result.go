package model

// FileFormat identifies the detected source format of an uploaded file.
type FileFormat string

// Supported source formats.
const (
	FormatSMLX FileFormat = "SMLX"
	FormatIFC  FileFormat = "IFC"
)

// Warning records a structural element that could not be fully parsed. The
// element is skipped and extraction continues; warnings surface on the parse
// result so callers and tests can inspect them directly.
type Warning struct {
	Element string `json:"element"`
	Reason  string `json:"reason"`
}

// ParseResult is the primary output of the extraction pipeline: the full
// assembly/part hierarchy plus derived counts. Every part appears in exactly
// one list (one assembly's identified or unidentified list, or LooseParts).
type ParseResult struct {
	FileType FileFormat `json:"fileType"`

	TotalElementCount int `json:"totalElementCount"`
	IdentifiedCount   int `json:"identifiedPartCount"`
	UnidentifiedCount int `json:"unidentifiedPartCount"`
	AssemblyCount     int `json:"assemblyCount"`

	Assemblies []*ParsedAssembly `json:"assemblies"`
	LooseParts []*ParsedPart     `json:"looseParts"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// AllParts returns every part in document order: assembly members first (in
// assembly order, identified then unidentified), then loose parts.
func (r *ParseResult) AllParts() []*ParsedPart {
	parts := make([]*ParsedPart, 0, r.TotalElementCount)
	for _, a := range r.Assemblies {
		parts = append(parts, a.IdentifiedParts...)
		parts = append(parts, a.UnidentifiedParts...)
	}
	parts = append(parts, r.LooseParts...)
	return parts
}

// Recount re-derives the identified/unidentified/total counts from the part
// lists. IdentifiedCount + UnidentifiedCount == TotalElementCount always
// holds afterwards.
func (r *ParseResult) Recount() {
	identified, unidentified := 0, 0
	for _, p := range r.AllParts() {
		if p.Identified {
			identified++
		} else {
			unidentified++
		}
	}
	r.IdentifiedCount = identified
	r.UnidentifiedCount = unidentified
	r.TotalElementCount = identified + unidentified
	r.AssemblyCount = len(r.Assemblies)
}

// FindPart looks a part up by temp id.
func (r *ParseResult) FindPart(tempID string) *ParsedPart {
	for _, p := range r.AllParts() {
		if p.TempID == tempID {
			return p
		}
	}
	return nil
}

// FindAssembly looks an assembly up by temp id.
func (r *ParseResult) FindAssembly(tempID string) *ParsedAssembly {
	for _, a := range r.Assemblies {
		if a.TempID == tempID {
			return a
		}
	}
	return nil
}
