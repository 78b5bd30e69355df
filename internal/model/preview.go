package model

import "time"

// Session preview statuses.
const (
	StatusReady         = "Ready"
	StatusPendingReview = "PendingReview"
	StatusFailed        = "Failed"
)

// IdentifiedPartPreview is the projection of an identified part returned to
// API consumers.
type IdentifiedPartPreview struct {
	TempPartID    string   `json:"tempPartId"`
	PartReference string   `json:"partReference"`
	Description   string   `json:"description"`
	PartType      PartType `json:"partType"`
	MaterialGrade string   `json:"materialGrade,omitempty"`
	Weight        *float64 `json:"weight,omitempty"`
	Quantity      float64  `json:"quantity"`
	AssemblyMark  string   `json:"assemblyMark,omitempty"`
}

// UnidentifiedPartPreview is the projection of a part awaiting operator
// identification, with enough source detail to recognize it.
type UnidentifiedPartPreview struct {
	TempPartID         string     `json:"tempPartId"`
	TempAssemblyID     string     `json:"tempAssemblyId,omitempty"`
	PartType           PartType   `json:"partType"`
	Description        string     `json:"description"`
	MaterialGrade      string     `json:"materialGrade,omitempty"`
	SourceElementName  string     `json:"sourceElementName,omitempty"`
	SourceObjectType   string     `json:"sourceObjectType,omitempty"`
	Dimensions         Dimensions `json:"dimensions"`
	Weight             *float64   `json:"weight,omitempty"`
	Quantity           float64    `json:"quantity"`
	AssemblyMark       string     `json:"assemblyMark,omitempty"`
	SuggestedReference string     `json:"suggestedReference,omitempty"`
}

// AssemblyPreview is the per-assembly projection in a session preview.
type AssemblyPreview struct {
	TempAssemblyID      string                    `json:"tempAssemblyId"`
	AssemblyMark        string                    `json:"assemblyMark,omitempty"`
	AssemblyName        string                    `json:"assemblyName,omitempty"`
	NeedsIdentification bool                      `json:"needsIdentification"`
	SuggestedMark       string                    `json:"suggestedAssemblyMark,omitempty"`
	TotalWeight         float64                   `json:"totalWeight"`
	TotalPartCount      int                       `json:"totalPartCount"`
	IdentifiedParts     []IdentifiedPartPreview   `json:"identifiedParts"`
	UnidentifiedParts   []UnidentifiedPartPreview `json:"unidentifiedParts"`
}

// SessionPreview mirrors the parse result plus session metadata and a
// computed status.
type SessionPreview struct {
	ImportSessionID string     `json:"importSessionId"`
	DrawingID       int64      `json:"drawingId"`
	RevisionID      int64      `json:"drawingRevisionId"`
	FileName        string     `json:"fileName"`
	FileType        FileFormat `json:"fileType"`
	Status          string     `json:"status"`

	TotalElementCount int `json:"totalElementCount"`
	IdentifiedCount   int `json:"identifiedPartCount"`
	UnidentifiedCount int `json:"unidentifiedPartCount"`
	AssemblyCount     int `json:"assemblyCount"`

	Assemblies        []AssemblyPreview         `json:"assemblies"`
	UnidentifiedParts []UnidentifiedPartPreview `json:"unidentifiedParts"`

	ParsedAt  time.Time `json:"parsedDate"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewPreview projects a stored session into the preview shape. Loose parts
// that are already identified are counted but not listed; the unidentified
// loose parts are what the operator needs to act on.
func NewPreview(s *ImportSession) *SessionPreview {
	result := s.Result

	status := StatusReady
	if result.UnidentifiedCount > 0 {
		status = StatusPendingReview
	}

	preview := &SessionPreview{
		ImportSessionID:   s.ID,
		DrawingID:         s.DrawingID,
		RevisionID:        s.RevisionID,
		FileName:          s.FileName,
		FileType:          result.FileType,
		Status:            status,
		TotalElementCount: result.TotalElementCount,
		IdentifiedCount:   result.IdentifiedCount,
		UnidentifiedCount: result.UnidentifiedCount,
		AssemblyCount:     result.AssemblyCount,
		Assemblies:        make([]AssemblyPreview, 0, len(result.Assemblies)),
		UnidentifiedParts: make([]UnidentifiedPartPreview, 0),
		ParsedAt:          s.CreatedAt,
		ExpiresAt:         s.ExpiresAt,
	}

	for _, a := range result.Assemblies {
		ap := AssemblyPreview{
			TempAssemblyID:      a.TempID,
			AssemblyMark:        a.Mark,
			AssemblyName:        a.Name,
			NeedsIdentification: !a.Identified,
			SuggestedMark:       a.SuggestedMark,
			TotalWeight:         a.TotalWeight,
			TotalPartCount:      a.PartCount(),
			IdentifiedParts:     make([]IdentifiedPartPreview, 0, len(a.IdentifiedParts)),
			UnidentifiedParts:   make([]UnidentifiedPartPreview, 0, len(a.UnidentifiedParts)),
		}
		for _, p := range a.IdentifiedParts {
			ap.IdentifiedParts = append(ap.IdentifiedParts, identifiedPreview(p))
		}
		for _, p := range a.UnidentifiedParts {
			ap.UnidentifiedParts = append(ap.UnidentifiedParts, unidentifiedPreview(p))
		}
		preview.Assemblies = append(preview.Assemblies, ap)
	}

	for _, p := range result.LooseParts {
		if !p.Identified {
			preview.UnidentifiedParts = append(preview.UnidentifiedParts, unidentifiedPreview(p))
		}
	}

	return preview
}

func identifiedPreview(p *ParsedPart) IdentifiedPartPreview {
	return IdentifiedPartPreview{
		TempPartID:    p.TempID,
		PartReference: p.PartReference,
		Description:   p.Description,
		PartType:      p.PartType,
		MaterialGrade: p.MaterialGrade,
		Weight:        p.Weight,
		Quantity:      p.Quantity,
		AssemblyMark:  p.AssemblyMark,
	}
}

func unidentifiedPreview(p *ParsedPart) UnidentifiedPartPreview {
	return UnidentifiedPartPreview{
		TempPartID:         p.TempID,
		TempAssemblyID:     p.TempAssemblyID,
		PartType:           p.PartType,
		Description:        p.Description,
		MaterialGrade:      p.MaterialGrade,
		SourceElementName:  p.SourceElementName,
		SourceObjectType:   p.SourceObjectType,
		Dimensions:         p.Dimensions,
		Weight:             p.Weight,
		Quantity:           p.Quantity,
		AssemblyMark:       p.AssemblyMark,
		SuggestedReference: p.SuggestedReference,
	}
}
