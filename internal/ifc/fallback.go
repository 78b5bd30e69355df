package ifc

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/steelforge/takeoff/internal/geometry"
	"github.com/steelforge/takeoff/internal/model"
)

// The degraded pass tolerates instance lines broken across physical lines,
// which is what defeats the line scanner in the first place.
var (
	fallbackElementRe = regexp.MustCompile(`(?is)#(\d+)\s*=\s*(IFCBEAM|IFCPLATE)\s*\((.*?)\)\s*;`)
	fallbackProfileRe = regexp.MustCompile(`(?is)#\d+\s*=\s*(IFCISHAPEPROFILEDEF|IFCUSHAPEPROFILEDEF)\s*\((.*?)\)\s*;`)
)

// fallbackExtract recovers beams and plates by pattern matching raw text when
// the instance line scan yields nothing. No relationship traversal happens
// here: parts come out without material, weight or assembly grouping, and
// profile geometry is matched by designation only.
func fallbackExtract(data []byte) ([]*model.ParsedPart, []model.Warning, error) {
	text := string(data)

	profiles := fallbackProfiles(text)

	var parts []*model.ParsedPart
	for _, m := range fallbackElementRe.FindAllStringSubmatch(text, -1) {
		args := splitTopLevel(m[3])
		if len(args) < elementArgCount {
			continue
		}

		kind := model.PartTypeBeam
		if strings.EqualFold(m[2], "IFCPLATE") {
			kind = model.PartTypePlate
		}

		name := argString(args[2])
		desc := argString(args[3])
		objType := argString(args[4])

		part := &model.ParsedPart{
			PartType:          kind,
			Description:       firstNonEmpty(desc, objType, name),
			MaterialStandard:  InferStandard(firstNonEmpty(objType, desc, name)),
			Quantity:          1,
			Unit:              "EA",
			SourceElementName: name,
			SourceObjectType:  objType,
		}

		if p, ok := matchProfile(profiles, objType, desc, name); ok {
			part.Dimensions = geometry.FromProfile(p, geometry.UnitMillimeter)
			if part.Description == "" {
				part.Description = p.Name
			}
		}

		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return nil, nil, nil
	}

	slog.Warn("IFC line scan found no entities, pattern fallback used", "parts", len(parts))

	warnings := []model.Warning{{
		Element: "DATA",
		Reason:  "instance lines unreadable, recovered beams and plates without relationship data",
	}}
	return parts, warnings, nil
}

// fallbackProfiles collects I and U profile definitions keyed by upper-cased
// designation.
func fallbackProfiles(text string) map[string]geometry.Profile {
	profiles := make(map[string]geometry.Profile)
	for _, m := range fallbackProfileRe.FindAllStringSubmatch(text, -1) {
		ent := &entity{
			typ:  strings.ToUpper(m[1]),
			args: splitTopLevel(m[2]),
		}
		p, ok := parseProfile(ent)
		if !ok || p.Name == "" {
			continue
		}
		profiles[strings.ToUpper(p.Name)] = p
	}
	return profiles
}

// matchProfile finds a profile whose designation appears in any of the
// element's descriptive fields. Designations are tried longest first so
// "PFC 150" wins over "PFC".
func matchProfile(profiles map[string]geometry.Profile, fields ...string) (geometry.Profile, bool) {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	for _, field := range fields {
		upper := strings.ToUpper(field)
		if upper == "" {
			continue
		}
		for _, name := range names {
			if strings.Contains(upper, name) {
				return profiles[name], true
			}
		}
	}
	return geometry.Profile{}, false
}
