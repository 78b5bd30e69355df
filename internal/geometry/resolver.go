// Package geometry maps native profile definitions from either source format
// into the canonical 12-field dimension record, normalized to millimeters.
package geometry

import (
	"math"

	"github.com/steelforge/takeoff/internal/model"
)

// Shape is a structural cross-section family.
type Shape string

// Supported profile shapes.
const (
	ShapeI     Shape = "I"
	ShapeU     Shape = "U"
	ShapeT     Shape = "T"
	ShapeL     Shape = "L"
	ShapeRHS   Shape = "RHS"
	ShapeCHS   Shape = "CHS"
	ShapeFlat  Shape = "FLAT"
	ShapeRound Shape = "ROUND"
)

// Unit is the linear unit of a source profile definition.
type Unit float64

// Source units, expressed as the factor converting to millimeters.
const (
	UnitMillimeter Unit = 1
	UnitMeter      Unit = 1000
)

// Profile carries a native profile definition: the shape tag plus whichever
// dimensions the source provides, in the source's own unit.
type Profile struct {
	Shape Shape
	Name  string

	Depth           float64 // overall depth for I/U/T, X dim for RHS, leg A for L
	Width           float64 // flat width, RHS Y dim, leg B for L (0 = equal angle)
	Thickness       float64 // flat/angle thickness
	Radius          float64 // CHS/round radius
	WallThickness   float64
	FlangeWidth     float64
	FlangeThickness float64
	WebThickness    float64
}

// Point is a profile boundary point in the source's coordinate system.
type Point struct {
	X, Y, Z float64
}

// channelBoundaryPoints is the boundary point count the authoring tool emits
// for channel sections. Other counts yield no geometry.
const channelBoundaryPoints = 9

// FromProfile resolves a native profile definition into canonical dimensions.
// The mapping per shape family is fixed:
//
//	I/U/T  -> webDepth, flangeWidth, webThickness, flangeThickness
//	L      -> legA, legB (legA when unspecified), thickness
//	RHS    -> webDepth, width, wallThickness
//	CHS    -> outsideDiameter (2r), wallThickness
//	FLAT   -> width, thickness
//	ROUND  -> diameter (2r)
func FromProfile(p Profile, unit Unit) model.Dimensions {
	var dims model.Dimensions
	scale := float64(unit)

	switch p.Shape {
	case ShapeI, ShapeU, ShapeT:
		dims.WebDepth = positive(p.Depth * scale)
		dims.FlangeWidth = positive(p.FlangeWidth * scale)
		dims.WebThickness = positive(p.WebThickness * scale)
		dims.FlangeThickness = positive(p.FlangeThickness * scale)
	case ShapeL:
		legB := p.Width
		if legB == 0 {
			// Equal-leg angle.
			legB = p.Depth
		}
		dims.LegA = positive(p.Depth * scale)
		dims.LegB = positive(legB * scale)
		dims.Thickness = positive(p.Thickness * scale)
	case ShapeRHS:
		dims.WebDepth = positive(p.Depth * scale)
		dims.Width = positive(p.Width * scale)
		dims.WallThickness = positive(p.WallThickness * scale)
	case ShapeCHS:
		dims.OutsideDiameter = positive(p.Radius * 2 * scale)
		dims.WallThickness = positive(p.WallThickness * scale)
	case ShapeFlat:
		dims.Width = positive(p.Width * scale)
		dims.Thickness = positive(p.Thickness * scale)
	case ShapeRound:
		dims.Diameter = positive(p.Radius * 2 * scale)
	}

	return dims
}

// FromBoundaryPoints derives channel-section dimensions from raw profile
// boundary points when no structured profile object is available. The point
// ordering convention is the authoring tool's: outer flange edge, inner
// flange, web, inner flange, outer flange. Flange width and web depth are the
// point spans along Y and Z; flange thickness is the Y distance between the
// first two points and web thickness the Y distance between the second and
// third. Any point count other than nine yields no geometry.
func FromBoundaryPoints(points []Point, unit Unit) model.Dimensions {
	var dims model.Dimensions
	if len(points) != channelBoundaryPoints {
		return dims
	}

	scale := float64(unit)

	minY, maxY := points[0].Y, points[0].Y
	minZ, maxZ := points[0].Z, points[0].Z
	for _, pt := range points[1:] {
		minY = math.Min(minY, pt.Y)
		maxY = math.Max(maxY, pt.Y)
		minZ = math.Min(minZ, pt.Z)
		maxZ = math.Max(maxZ, pt.Z)
	}

	dims.FlangeWidth = positive((maxY - minY) * scale)
	dims.WebDepth = positive((maxZ - minZ) * scale)
	dims.FlangeThickness = positive(math.Abs(points[0].Y-points[1].Y) * scale)
	dims.WebThickness = positive(math.Abs(points[1].Y-points[2].Y) * scale)

	return dims
}

// positive returns a pointer to v when it is a usable dimension, nil
// otherwise. Zero and negative values mean the source did not provide the
// field.
func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
