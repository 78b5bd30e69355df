package ifc

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/steelforge/takeoff/internal/common"
	"github.com/steelforge/takeoff/internal/geometry"
	"github.com/steelforge/takeoff/internal/model"
)

// Structural element entities and the part type each maps to. Proxy elements
// are refined into fastener subtypes from their naming.
var structuralKinds = map[string]model.PartType{
	"IFCBEAM":                 model.PartTypeBeam,
	"IFCPLATE":                model.PartTypePlate,
	"IFCMEMBER":               model.PartTypeMember,
	"IFCCOLUMN":               model.PartTypeColumn,
	"IFCFOOTING":              model.PartTypeFooting,
	"IFCSLAB":                 model.PartTypeSlab,
	"IFCPILE":                 model.PartTypePile,
	"IFCMECHANICALFASTENER":   model.PartTypeFastener,
	"IFCBUILDINGELEMENTPROXY": model.PartTypeMisc,
}

// Property names that carry an assembly mark when the element is not part of
// an aggregation, checked in order.
var assemblyMarkProperties = []string{"ASSEMBLYMARK", "ASSEMBLY", "MARK"}

// elementArgCount is the shared leading signature of structural element
// entities: GlobalId, OwnerHistory, Name, Description, ObjectType, Placement,
// Representation, Tag.
const elementArgCount = 8

// Extractor parses STEP-21 models into raw part records.
type Extractor struct{}

// NewExtractor creates a STEP model extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract scans the instance lines into an entity table, indexes material,
// quantity, property and aggregation relationships, and walks every
// structural element into a raw part record. When the file carries a valid
// header but no scannable instance lines, a degraded line-level pass recovers
// what it can. A model with no structural elements yields an empty result.
func (e *Extractor) Extract(ctx context.Context, data []byte) ([]*model.ParsedPart, []model.Warning, error) {
	if !hasStepHeader(data) {
		return nil, nil, common.NewFormatError("IFC", "missing ISO-10303-21 header")
	}

	entities := scanEntities(data)
	if len(entities) == 0 {
		return fallbackExtract(data)
	}

	idx := buildIndex(entities)
	ids := sortedIDs(entities)

	var parts []*model.ParsedPart
	var warnings []model.Warning

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		ent := entities[id]
		kind, ok := structuralKinds[ent.typ]
		if !ok {
			continue
		}

		part, err := idx.extractElement(ent, kind)
		if err != nil {
			warnings = append(warnings, model.Warning{
				Element: fmt.Sprintf("#%d %s", ent.id, ent.typ),
				Reason:  err.Error(),
			})
			slog.Warn("Skipping structural element",
				"entity", ent.id,
				"type", ent.typ,
				"error", err)
			continue
		}
		parts = append(parts, part)
	}

	slog.Info("IFC extraction complete",
		"entities", len(entities),
		"parts", len(parts),
		"skipped", len(warnings))

	return parts, warnings, nil
}

// elementQuantities is the subset of an element's quantity sets the takeoff
// uses.
type elementQuantities struct {
	weight float64
	length float64
	area   float64
	volume float64
}

// modelIndex holds per-element lookups resolved from the model's objectified
// relationships.
type modelIndex struct {
	entities      map[int64]*entity
	profiles      map[int64]geometry.Profile
	materialNames map[int64]string
	assemblyMarks map[int64]string
	quantities    map[int64]elementQuantities
	properties    map[int64]map[string]string
}

// sortedIDs returns the entity ids in ascending order so every walk over the
// table is deterministic.
func sortedIDs(entities map[int64]*entity) []int64 {
	ids := make([]int64, 0, len(entities))
	for id := range entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// buildIndex walks the relationship entities in id order so that when two
// relationships define conflicting values for the same element, the winner is
// stable run to run.
func buildIndex(entities map[int64]*entity) *modelIndex {
	idx := &modelIndex{
		entities:      entities,
		profiles:      make(map[int64]geometry.Profile),
		materialNames: make(map[int64]string),
		assemblyMarks: make(map[int64]string),
		quantities:    make(map[int64]elementQuantities),
		properties:    make(map[int64]map[string]string),
	}

	for _, id := range sortedIDs(entities) {
		ent := entities[id]
		if p, ok := parseProfile(ent); ok {
			idx.profiles[id] = p
			continue
		}

		switch ent.typ {
		case "IFCRELASSOCIATESMATERIAL":
			// RelatedObjects, RelatingMaterial.
			name := idx.resolveMaterialName(argRef(ent.arg(5)), nil)
			if name == "" {
				continue
			}
			for _, obj := range argRefs(ent.arg(4)) {
				idx.materialNames[obj] = name
			}

		case "IFCRELAGGREGATES":
			// RelatingObject, RelatedObjects.
			parent := argRef(ent.arg(4))
			mark := ""
			if pe, ok := entities[parent]; ok {
				mark = argString(pe.arg(2))
			}
			if mark == "" {
				// Synthetic mark so siblings still group together.
				mark = fmt.Sprintf("ASM_%d", parent)
			}
			for _, child := range argRefs(ent.arg(5)) {
				idx.assemblyMarks[child] = mark
			}

		case "IFCRELDEFINESBYPROPERTIES":
			// RelatedObjects, RelatingPropertyDefinition.
			def, ok := entities[argRef(ent.arg(5))]
			if !ok {
				continue
			}
			for _, obj := range argRefs(ent.arg(4)) {
				switch def.typ {
				case "IFCELEMENTQUANTITY":
					q := idx.quantities[obj]
					idx.mergeQuantities(&q, def)
					idx.quantities[obj] = q
				case "IFCPROPERTYSET":
					idx.mergeProperties(obj, def)
				}
			}
		}
	}

	return idx
}

// resolveMaterialName follows a material association to a concrete material
// name. Layer and profile sets resolve to their first entry; the visited set
// guards against reference cycles.
func (idx *modelIndex) resolveMaterialName(id int64, visited map[int64]bool) string {
	if id == 0 || visited[id] {
		return ""
	}
	ent, ok := idx.entities[id]
	if !ok {
		return ""
	}
	if visited == nil {
		visited = make(map[int64]bool)
	}
	visited[id] = true

	switch ent.typ {
	case "IFCMATERIAL":
		return argString(ent.arg(0))
	case "IFCMATERIALLAYERSETUSAGE", "IFCMATERIALPROFILESETUSAGE", "IFCMATERIALLAYER":
		return idx.resolveMaterialName(argRef(ent.arg(0)), visited)
	case "IFCMATERIALLAYERSET", "IFCMATERIALLIST":
		if refs := argRefs(ent.arg(0)); len(refs) > 0 {
			return idx.resolveMaterialName(refs[0], visited)
		}
	case "IFCMATERIALPROFILESET":
		if refs := argRefs(ent.arg(2)); len(refs) > 0 {
			return idx.resolveMaterialName(refs[0], visited)
		}
	case "IFCMATERIALPROFILE":
		return idx.resolveMaterialName(argRef(ent.arg(2)), visited)
	}
	return ""
}

// mergeQuantities folds an element quantity set into q. Quantities are
// matched by name: any weight is taken, lengths only when named as a length
// or height, and the first area and volume win.
func (idx *modelIndex) mergeQuantities(q *elementQuantities, def *entity) {
	for _, ref := range argRefs(def.arg(5)) {
		ent, ok := idx.entities[ref]
		if !ok {
			continue
		}
		name := strings.ToUpper(argString(ent.arg(0)))
		value := argFloat(ent.arg(3))
		if value <= 0 {
			continue
		}

		switch ent.typ {
		case "IFCQUANTITYWEIGHT":
			if q.weight == 0 {
				q.weight = value
			}
		case "IFCQUANTITYLENGTH":
			if q.length == 0 && (strings.Contains(name, "LENGTH") || strings.Contains(name, "HEIGHT")) {
				q.length = value
			}
		case "IFCQUANTITYAREA":
			if q.area == 0 {
				q.area = value
			}
		case "IFCQUANTITYVOLUME":
			if q.volume == 0 {
				q.volume = value
			}
		}
	}
}

// mergeProperties folds a property set's single values into the element's
// property map, keyed by upper-cased property name.
func (idx *modelIndex) mergeProperties(obj int64, def *entity) {
	for _, ref := range argRefs(def.arg(4)) {
		ent, ok := idx.entities[ref]
		if !ok || ent.typ != "IFCPROPERTYSINGLEVALUE" {
			continue
		}
		name := strings.ToUpper(argString(ent.arg(0)))
		if name == "" {
			continue
		}
		value := argTypedString(ent.arg(2))
		if value == "" {
			continue
		}
		props := idx.properties[obj]
		if props == nil {
			props = make(map[string]string)
			idx.properties[obj] = props
		}
		if _, exists := props[name]; !exists {
			props[name] = value
		}
	}
}

// profileFor walks the element's shape representation to the swept profile:
// product definition shape, shape representations, then extruded solids,
// unwrapping boolean results to their first operand.
func (idx *modelIndex) profileFor(ent *entity) (geometry.Profile, bool) {
	shape, ok := idx.entities[argRef(ent.arg(6))]
	if !ok || shape.typ != "IFCPRODUCTDEFINITIONSHAPE" {
		return geometry.Profile{}, false
	}

	for _, repRef := range argRefs(shape.arg(2)) {
		rep, ok := idx.entities[repRef]
		if !ok || rep.typ != "IFCSHAPEREPRESENTATION" {
			continue
		}
		for _, itemRef := range argRefs(rep.arg(3)) {
			if p, ok := idx.sweptProfile(itemRef, 0); ok {
				return p, true
			}
		}
	}
	return geometry.Profile{}, false
}

func (idx *modelIndex) sweptProfile(id int64, depth int) (geometry.Profile, bool) {
	if depth > 8 {
		return geometry.Profile{}, false
	}
	ent, ok := idx.entities[id]
	if !ok {
		return geometry.Profile{}, false
	}

	switch ent.typ {
	case "IFCEXTRUDEDAREASOLID":
		p, ok := idx.profiles[argRef(ent.arg(0))]
		return p, ok
	case "IFCBOOLEANRESULT", "IFCBOOLEANCLIPPINGRESULT":
		return idx.sweptProfile(argRef(ent.arg(1)), depth+1)
	case "IFCMAPPEDITEM":
		src, ok := idx.entities[argRef(ent.arg(0))]
		if !ok || src.typ != "IFCREPRESENTATIONMAP" {
			return geometry.Profile{}, false
		}
		mapped, ok := idx.entities[argRef(src.arg(1))]
		if !ok || mapped.typ != "IFCSHAPEREPRESENTATION" {
			return geometry.Profile{}, false
		}
		for _, itemRef := range argRefs(mapped.arg(3)) {
			if p, ok := idx.sweptProfile(itemRef, depth+1); ok {
				return p, true
			}
		}
	}
	return geometry.Profile{}, false
}

// extractElement reads one structural element into a raw part record.
func (idx *modelIndex) extractElement(ent *entity, kind model.PartType) (*model.ParsedPart, error) {
	if len(ent.args) < elementArgCount {
		return nil, fmt.Errorf("element has %d arguments, want %d", len(ent.args), elementArgCount)
	}

	name := argString(ent.arg(2))
	desc := argString(ent.arg(3))
	objType := argString(ent.arg(4))
	props := idx.properties[ent.id]

	if ent.typ == "IFCBUILDINGELEMENTPROXY" {
		kind = proxyKind(name, objType)
	}

	part := &model.ParsedPart{
		PartReference:     props["REFERENCE"],
		PartType:          kind,
		MaterialGrade:     idx.materialNames[ent.id],
		Quantity:          1,
		Unit:              "EA",
		SourceElementName: name,
		SourceObjectType:  objType,
	}

	profileName := ""
	if p, ok := idx.profileFor(ent); ok {
		profileName = p.Name
		part.Dimensions = geometry.FromProfile(p, geometry.UnitMillimeter)
	}

	part.Description = firstNonEmpty(profileName, desc, objType, name)
	part.MaterialStandard = InferStandard(firstNonEmpty(profileName, objType, desc))

	q := idx.quantities[ent.id]
	if part.Dimensions.Length == nil && q.length > 0 {
		part.Dimensions.Length = &q.length
	}
	part.Weight = positiveValue(q.weight)
	part.Volume = positiveValue(q.volume)
	part.PaintedArea = positiveValue(q.area)

	part.AssemblyMark = idx.assemblyMarks[ent.id]
	if part.AssemblyMark == "" {
		for _, key := range assemblyMarkProperties {
			if v := props[key]; v != "" {
				part.AssemblyMark = v
				break
			}
		}
	}

	return part, nil
}

// proxyKind refines a building element proxy into a fastener subtype from
// its naming.
func proxyKind(name, objType string) model.PartType {
	s := strings.ToUpper(name + " " + objType)
	switch {
	case strings.Contains(s, "NUT"):
		return model.PartTypeNut
	case strings.Contains(s, "WASHER"):
		return model.PartTypeWasher
	case strings.Contains(s, "BOLT"):
		return model.PartTypeBolt
	case strings.Contains(s, "ANCHOR"):
		return model.PartTypeAnchor
	}
	return model.PartTypeMisc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func positiveValue(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
