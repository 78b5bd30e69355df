// Package smlx parses SMLX exports: zip archives whose Contents folder holds
// an XML document describing fabrication objects as nested class-tagged
// element trees.
package smlx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/steelforge/takeoff/internal/common"
	"github.com/steelforge/takeoff/internal/geometry"
	"github.com/steelforge/takeoff/internal/model"
)

// Structural object classes the extractor recognizes. Data for one logical
// part is split across Members containers at different nesting depths, so
// field lookups scan every container under the object.
var structuralClasses = map[string]model.PartType{
	"CGREXBeam":        model.PartTypeBeam,
	"CGREXPlate":       model.PartTypePlate,
	"CGREXPolyBeam":    model.PartTypeBeam,
	"CGREXSpecialPart": model.PartTypeMisc,
}

const (
	classMaterial = "CGREXMaterial"
	classSection  = "CGREXSection"

	contentsPrefix = "Contents/"
	xmlSuffix      = ".xml"
)

// Extractor parses SMLX archives into raw part records.
type Extractor struct {
	// MaxUncompressedBytes caps the archive's declared uncompressed size
	// and, separately, the located document's size. Checked before any
	// bulk decompression.
	MaxUncompressedBytes int64
}

// NewExtractor creates an extractor with the given decompression cap.
func NewExtractor(maxUncompressedBytes int64) *Extractor {
	return &Extractor{MaxUncompressedBytes: maxUncompressedBytes}
}

// Extract opens the archive, locates the structural-data document, and walks
// it into raw part records. Elements that cannot be parsed are skipped with a
// warning; a missing or oversized document aborts the parse.
func (e *Extractor) Extract(ctx context.Context, data []byte) ([]*model.ParsedPart, []model.Warning, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, common.NewFormatError("SMLX", fmt.Sprintf("not a readable archive: %v", err))
	}

	// Reject decompression bombs before touching any entry.
	var declared int64
	for _, entry := range archive.File {
		declared += int64(entry.UncompressedSize64)
	}
	if declared > e.MaxUncompressedBytes {
		return nil, nil, &common.SizeLimitError{Declared: declared, Limit: e.MaxUncompressedBytes}
	}

	doc, err := e.findStructuralDocument(archive)
	if err != nil {
		return nil, nil, err
	}

	root, err := decodeDocument(doc)
	if err != nil {
		return nil, nil, common.NewFormatError("SMLX", fmt.Sprintf("structural document: %v", err))
	}

	var parts []*model.ParsedPart
	var warnings []model.Warning

	objects := root.findObjects(structuralClassNames())
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		part, err := parseStructuralObject(obj)
		if err != nil {
			warnings = append(warnings, model.Warning{
				Element: obj.Class,
				Reason:  err.Error(),
			})
			slog.Warn("Skipping structural object",
				"class", obj.Class,
				"error", err)
			continue
		}
		parts = append(parts, part)
	}

	slog.Info("SMLX extraction complete",
		"objects", len(objects),
		"parts", len(parts),
		"skipped", len(warnings))

	return parts, warnings, nil
}

// findStructuralDocument locates the XML document under the Contents folder
// and reads it, re-checking the size cap for that single entry first.
func (e *Extractor) findStructuralDocument(archive *zip.Reader) ([]byte, error) {
	for _, entry := range archive.File {
		if !strings.HasPrefix(entry.Name, contentsPrefix) || !strings.HasSuffix(entry.Name, xmlSuffix) {
			continue
		}

		if int64(entry.UncompressedSize64) > e.MaxUncompressedBytes {
			return nil, &common.SizeLimitError{
				Declared: int64(entry.UncompressedSize64),
				Limit:    e.MaxUncompressedBytes,
			}
		}

		rc, err := entry.Open()
		if err != nil {
			return nil, common.NewFormatError("SMLX", fmt.Sprintf("open %s: %v", entry.Name, err))
		}
		defer func() { _ = rc.Close() }()

		// LimitReader backstops a lying central directory entry.
		data, err := io.ReadAll(io.LimitReader(rc, e.MaxUncompressedBytes+1))
		if err != nil {
			return nil, common.NewFormatError("SMLX", fmt.Sprintf("read %s: %v", entry.Name, err))
		}
		if int64(len(data)) > e.MaxUncompressedBytes {
			return nil, &common.SizeLimitError{Declared: int64(len(data)), Limit: e.MaxUncompressedBytes}
		}

		slog.Debug("Found structural document", "entry", entry.Name, "bytes", len(data))
		return data, nil
	}

	return nil, common.NewFormatError("SMLX", "no XML document found in Contents folder")
}

func structuralClassNames() map[string]bool {
	names := make(map[string]bool, len(structuralClasses))
	for class := range structuralClasses {
		names[class] = true
	}
	return names
}

// parseStructuralObject reads one structural object into a raw part record.
// The identifying mark lives in an inner Members container while descriptive
// and material fields sit in outer ones, so every named field is resolved by
// first match across all containers. A part lacking the identifying mark is
// still emitted; the identification engine classifies it later.
func parseStructuralObject(obj *node) (*model.ParsedPart, error) {
	// Material and section objects keep their own Members containers out of
	// the part-level field scan; their m_strName would shadow the part's.
	containers := obj.membersContainersExcluding(classMaterial, classSection)
	if len(containers) == 0 {
		return nil, fmt.Errorf("no members containers")
	}

	partType, ok := structuralClasses[obj.Class]
	if !ok {
		partType = model.PartTypeUnknown
	}
	if role := stringField(containers, "m_strRole"); role != "" {
		partType = model.PartType(role)
	}

	part := &model.ParsedPart{
		PartReference: stringField(containers, "m_strSinglePartMark"),
		Description:   stringField(containers, "m_strName"),
		PartType:      partType,
		Coating:       stringField(containers, "m_strCoating"),
		AssemblyMark:  stringField(containers, "m_strMark"),
		Quantity:      1,
		Unit:          "EA",
	}

	// Linear dimensions are authored in meters.
	part.Dimensions.Length = positiveMM(doubleField(containers, "m_Length"))
	part.Dimensions.Width = positiveMM(doubleField(containers, "m_Width"))
	part.Dimensions.WebDepth = positiveMM(doubleField(containers, "m_Height"))

	// Weight (kg), volume (m³) and painted area (m²) keep their units.
	part.Weight = positiveValue(doubleField(containers, "m_ExactWeight"))
	part.Volume = positiveValue(doubleField(containers, "m_Volume"))
	part.PaintedArea = positiveValue(doubleField(containers, "m_PaintedArea"))

	if material := obj.findFirstObject(classMaterial); material != nil {
		part.MaterialGrade = stringField(material.membersContainers(), "m_strName")
	}

	if section := obj.findFirstObject(classSection); section != nil {
		sectionContainers := section.membersContainers()
		part.MaterialStandard = stringField(sectionContainers, "m_strStandard")
		part.Dimensions.Merge(sectionGeometry(section))
	}

	return part, nil
}

// sectionGeometry derives channel flange/web dimensions from the section's
// boundary points.
func sectionGeometry(section *node) model.Dimensions {
	var points []geometry.Point
	for _, child := range section.allDescendants() {
		if !strings.HasPrefix(child.XMLName.Local, "m_tabGeometryPoints_") {
			continue
		}
		containers := child.membersContainers()
		if len(containers) == 0 {
			continue
		}
		points = append(points, geometry.Point{
			X: doubleField(containers, "m_dfX"),
			Y: doubleField(containers, "m_dfY"),
			Z: doubleField(containers, "m_dfZ"),
		})
	}

	return geometry.FromBoundaryPoints(points, geometry.UnitMeter)
}

// node is a generic view over the SMLX element tree. Field elements carry
// their value in a "string" or "double" attribute.
type node struct {
	XMLName  xml.Name
	Class    string `xml:"class,attr"`
	String   string `xml:"string,attr"`
	Double   string `xml:"double,attr"`
	Children []node `xml:",any"`
}

func decodeDocument(data []byte) (*node, error) {
	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// findObjects collects every descendant Object element whose class attribute
// is in the wanted set, in document order.
func (n *node) findObjects(wanted map[string]bool) []*node {
	var found []*node
	n.walk(func(child *node) bool {
		if child.XMLName.Local == "Object" && wanted[child.Class] {
			found = append(found, child)
			// Structural objects do not nest inside each other.
			return false
		}
		return true
	})
	return found
}

// findFirstObject returns the first descendant Object with the given class.
func (n *node) findFirstObject(class string) *node {
	var found *node
	n.walk(func(child *node) bool {
		if found != nil {
			return false
		}
		if child.XMLName.Local == "Object" && child.Class == class {
			found = child
			return false
		}
		return true
	})
	return found
}

// membersContainers collects every descendant Members element, outermost
// first.
func (n *node) membersContainers() []*node {
	return n.membersContainersExcluding()
}

// membersContainersExcluding collects descendant Members elements, pruning
// subtrees rooted at Object elements with any of the excluded classes.
func (n *node) membersContainersExcluding(classes ...string) []*node {
	excluded := make(map[string]bool, len(classes))
	for _, c := range classes {
		excluded[c] = true
	}

	var containers []*node
	n.walk(func(child *node) bool {
		if child.XMLName.Local == "Object" && excluded[child.Class] {
			return false
		}
		if child.XMLName.Local == "Members" {
			containers = append(containers, child)
		}
		return true
	})
	return containers
}

func (n *node) allDescendants() []*node {
	var nodes []*node
	n.walk(func(child *node) bool {
		nodes = append(nodes, child)
		return true
	})
	return nodes
}

// walk visits descendants depth-first in document order. Returning false from
// fn prunes that subtree.
func (n *node) walk(fn func(*node) bool) {
	for i := range n.Children {
		child := &n.Children[i]
		if fn(child) {
			child.walk(fn)
		}
	}
}

// stringField returns the first match for the named field across all
// containers, scanned in order.
func stringField(containers []*node, name string) string {
	for _, c := range containers {
		for i := range c.Children {
			if c.Children[i].XMLName.Local == name {
				return c.Children[i].String
			}
		}
	}
	return ""
}

func doubleField(containers []*node, name string) float64 {
	for _, c := range containers {
		for i := range c.Children {
			if c.Children[i].XMLName.Local == name {
				v, err := strconv.ParseFloat(c.Children[i].Double, 64)
				if err != nil {
					return 0
				}
				return v
			}
		}
	}
	return 0
}

func positiveMM(meters float64) *float64 {
	if meters <= 0 {
		return nil
	}
	mm := meters * 1000
	return &mm
}

func positiveValue(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
