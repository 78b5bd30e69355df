package model

// PartMapping assigns an operator-provided reference to one unidentified part.
type PartMapping struct {
	TempPartID    string `json:"tempPartId"`
	PartReference string `json:"partReference"`
}

// AssemblyMapping assigns an operator-provided mark (and optional name) to one
// unidentified assembly.
type AssemblyMapping struct {
	TempAssemblyID string `json:"tempAssemblyId"`
	AssemblyMark   string `json:"assemblyMark"`
	AssemblyName   string `json:"assemblyName,omitempty"`
}

// MappingRequest carries the operator's identification decisions for a
// session. With AutoGenerateRemaining set, parts not covered by an explicit
// mapping are promoted using their precomputed suggested reference.
type MappingRequest struct {
	PartMappings          []PartMapping     `json:"partMappings"`
	AssemblyMappings      []AssemblyMapping `json:"assemblyMappings"`
	AutoGenerateRemaining bool              `json:"autoGenerateRemainingReferences"`
}
