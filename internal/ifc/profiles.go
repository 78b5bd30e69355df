package ifc

import "github.com/steelforge/takeoff/internal/geometry"

// Parameterized profile definition entities and the shape family each one
// resolves to. Arbitrary/composite profiles carry no usable dimensions and
// are not listed.
var profileShapes = map[string]geometry.Shape{
	"IFCISHAPEPROFILEDEF":           geometry.ShapeI,
	"IFCASYMMETRICISHAPEPROFILEDEF": geometry.ShapeI,
	"IFCUSHAPEPROFILEDEF":           geometry.ShapeU,
	"IFCTSHAPEPROFILEDEF":           geometry.ShapeT,
	"IFCLSHAPEPROFILEDEF":           geometry.ShapeL,
	"IFCRECTANGLEHOLLOWPROFILEDEF":  geometry.ShapeRHS,
	"IFCCIRCLEHOLLOWPROFILEDEF":     geometry.ShapeCHS,
	"IFCRECTANGLEPROFILEDEF":        geometry.ShapeFlat,
	"IFCCIRCLEPROFILEDEF":           geometry.ShapeRound,
}

// parseProfile reads a profile definition entity into a native profile.
// Schema argument order is shared across profile defs: ProfileType,
// ProfileName, Position, then the shape parameters.
func parseProfile(e *entity) (geometry.Profile, bool) {
	shape, ok := profileShapes[e.typ]
	if !ok {
		return geometry.Profile{}, false
	}

	p := geometry.Profile{
		Shape: shape,
		Name:  argString(e.arg(1)),
	}

	switch shape {
	case geometry.ShapeI:
		// OverallWidth, OverallDepth, WebThickness, FlangeThickness.
		p.FlangeWidth = argFloat(e.arg(3))
		p.Depth = argFloat(e.arg(4))
		p.WebThickness = argFloat(e.arg(5))
		p.FlangeThickness = argFloat(e.arg(6))
	case geometry.ShapeU, geometry.ShapeT:
		// Depth, FlangeWidth, WebThickness, FlangeThickness.
		p.Depth = argFloat(e.arg(3))
		p.FlangeWidth = argFloat(e.arg(4))
		p.WebThickness = argFloat(e.arg(5))
		p.FlangeThickness = argFloat(e.arg(6))
	case geometry.ShapeL:
		// Depth, Width (unset for equal angles), Thickness.
		p.Depth = argFloat(e.arg(3))
		p.Width = argFloat(e.arg(4))
		p.Thickness = argFloat(e.arg(5))
	case geometry.ShapeRHS:
		// XDim, YDim, WallThickness.
		p.Depth = argFloat(e.arg(3))
		p.Width = argFloat(e.arg(4))
		p.WallThickness = argFloat(e.arg(5))
	case geometry.ShapeCHS:
		// Radius, WallThickness.
		p.Radius = argFloat(e.arg(3))
		p.WallThickness = argFloat(e.arg(4))
	case geometry.ShapeFlat:
		// XDim, YDim.
		p.Width = argFloat(e.arg(3))
		p.Thickness = argFloat(e.arg(4))
	case geometry.ShapeRound:
		p.Radius = argFloat(e.arg(3))
	}

	return p, true
}
