// Package model defines the domain types shared across the import pipeline:
// parsed parts and assemblies, parse results, import sessions, and the
// preview projections returned to API consumers.
package model

// PartType classifies a structural element into the closed set of kinds the
// extractors recognize.
type PartType string

// Recognized structural part types.
const (
	PartTypeBeam     PartType = "Beam"
	PartTypePlate    PartType = "Plate"
	PartTypeMember   PartType = "Member"
	PartTypeColumn   PartType = "Column"
	PartTypeFooting  PartType = "Footing"
	PartTypeSlab     PartType = "Slab"
	PartTypePile     PartType = "Pile"
	PartTypeFastener PartType = "Fastener"
	PartTypeBolt     PartType = "Bolt"
	PartTypeNut      PartType = "Nut"
	PartTypeWasher   PartType = "Washer"
	PartTypeAnchor   PartType = "Anchor"
	PartTypeMisc     PartType = "Misc"
	PartTypeUnknown  PartType = "Unknown"
)

// Dimensions is the canonical 12-field geometry record. All values are in
// millimeters; nil means the source format did not provide the field.
type Dimensions struct {
	Length           *float64 `json:"length,omitempty"`
	Width            *float64 `json:"width,omitempty"`
	Thickness        *float64 `json:"thickness,omitempty"`
	Diameter         *float64 `json:"diameter,omitempty"`
	FlangeThickness  *float64 `json:"flangeThickness,omitempty"`
	FlangeWidth      *float64 `json:"flangeWidth,omitempty"`
	WebThickness     *float64 `json:"webThickness,omitempty"`
	WebDepth         *float64 `json:"webDepth,omitempty"`
	OutsideDiameter  *float64 `json:"outsideDiameter,omitempty"`
	WallThickness    *float64 `json:"wallThickness,omitempty"`
	LegA             *float64 `json:"legA,omitempty"`
	LegB             *float64 `json:"legB,omitempty"`
}

// Merge fills any unset field of d from other. Existing values win; quantity
// data (length) extracted separately from profile geometry lands in the same
// record this way.
func (d *Dimensions) Merge(other Dimensions) {
	if d.Length == nil {
		d.Length = other.Length
	}
	if d.Width == nil {
		d.Width = other.Width
	}
	if d.Thickness == nil {
		d.Thickness = other.Thickness
	}
	if d.Diameter == nil {
		d.Diameter = other.Diameter
	}
	if d.FlangeThickness == nil {
		d.FlangeThickness = other.FlangeThickness
	}
	if d.FlangeWidth == nil {
		d.FlangeWidth = other.FlangeWidth
	}
	if d.WebThickness == nil {
		d.WebThickness = other.WebThickness
	}
	if d.WebDepth == nil {
		d.WebDepth = other.WebDepth
	}
	if d.OutsideDiameter == nil {
		d.OutsideDiameter = other.OutsideDiameter
	}
	if d.WallThickness == nil {
		d.WallThickness = other.WallThickness
	}
	if d.LegA == nil {
		d.LegA = other.LegA
	}
	if d.LegB == nil {
		d.LegB = other.LegB
	}
}

// ParsedPart is a single fabricated part extracted from a CAD file. It is
// created once during extraction; only the identification engine (status and
// suggestion) and mapping application (reference promotion) mutate it
// afterwards.
type ParsedPart struct {
	// TempID is a session-local opaque identifier, distinct from any
	// permanent database id.
	TempID     string `json:"tempPartId"`
	Identified bool   `json:"isIdentified"`

	// PartReference is the authoritative mark. Empty until the part is
	// identified; SuggestedReference carries the deterministic fallback.
	PartReference      string `json:"partReference,omitempty"`
	SuggestedReference string `json:"suggestedReference,omitempty"`

	Description string   `json:"description"`
	PartType    PartType `json:"partType"`

	MaterialGrade    string `json:"materialGrade,omitempty"`
	MaterialStandard string `json:"materialStandard,omitempty"`
	Coating          string `json:"coating,omitempty"`

	Dimensions Dimensions `json:"dimensions"`

	// Weight in kg, Volume in m³, PaintedArea in m².
	Weight      *float64 `json:"weight,omitempty"`
	Volume      *float64 `json:"volume,omitempty"`
	PaintedArea *float64 `json:"paintedArea,omitempty"`

	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`

	// AssemblyMark is the join key grouping parts into assemblies at
	// extraction time; TempAssemblyID is back-filled by aggregation.
	AssemblyMark   string `json:"assemblyMark,omitempty"`
	TempAssemblyID string `json:"tempAssemblyId,omitempty"`

	// Source element identity, kept for operator reference.
	SourceElementName string `json:"sourceElementName,omitempty"`
	SourceObjectType  string `json:"sourceObjectType,omitempty"`
}

// WeightOrZero treats a missing weight as zero for totals.
func (p *ParsedPart) WeightOrZero() float64 {
	if p.Weight == nil {
		return 0
	}
	return *p.Weight
}
