// Package ifc parses STEP-21 engineering models, traversing structural
// elements, their material and quantity relationships, and profile geometry.
package ifc

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// stepHeaderToken opens every STEP-21 physical file.
const stepHeaderToken = "ISO-10303-21"

var entityLineRe = regexp.MustCompile(`^#(\d+)\s*=\s*(.+);$`)
var entityTypeRe = regexp.MustCompile(`^(IFC[A-Z0-9]+)\(`)

// entity is one instance line from the STEP data section.
type entity struct {
	id   int64
	typ  string
	args []string
}

// hasStepHeader reports whether the stream's first non-blank line carries the
// STEP-21 header token.
func hasStepHeader(data []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		return strings.HasPrefix(line, stepHeaderToken)
	}
	return false
}

// scanEntities reads every `#id = IFCTYPE(...);` line into an entity table.
// Lines that are not instance lines are ignored; a file with no instance
// lines yields an empty table.
func scanEntities(data []byte) map[int64]*entity {
	entities := make(map[int64]*entity)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}

		m := entityLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}

		body := strings.TrimSpace(m[2])
		tm := entityTypeRe.FindStringSubmatch(body)
		if tm == nil {
			continue
		}
		typ := tm[1]

		open := strings.Index(body, "(")
		close := strings.LastIndex(body, ")")
		if open < 0 || close <= open {
			continue
		}

		entities[id] = &entity{
			id:   id,
			typ:  typ,
			args: splitTopLevel(body[open+1 : close]),
		}
	}

	return entities
}

// splitTopLevel splits a STEP parameter list on commas at nesting depth zero,
// respecting quoted strings ('' escapes a quote).
func splitTopLevel(s string) []string {
	var args []string
	depth := 0
	inString := false
	start := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			if c == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
					continue
				}
				inString = false
			}
		case c == '\'':
			inString = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			args = append(args, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	args = append(args, strings.TrimSpace(s[start:]))
	return args
}

// argString decodes a quoted STEP string argument. Unset markers ($, *) and
// anything non-string decode to "".
func argString(arg string) string {
	if len(arg) < 2 || arg[0] != '\'' || arg[len(arg)-1] != '\'' {
		return ""
	}
	return strings.ReplaceAll(arg[1:len(arg)-1], "''", "'")
}

// argRef decodes an entity reference argument (#123). Returns 0 when the
// argument is not a reference.
func argRef(arg string) int64 {
	if !strings.HasPrefix(arg, "#") {
		return 0
	}
	id, err := strconv.ParseInt(arg[1:], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// argRefs decodes a list argument ((#1,#2,...)) into entity ids.
func argRefs(arg string) []int64 {
	if len(arg) < 2 || arg[0] != '(' || arg[len(arg)-1] != ')' {
		return nil
	}
	var ids []int64
	for _, item := range splitTopLevel(arg[1 : len(arg)-1]) {
		if id := argRef(item); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// argFloat decodes a numeric argument. Returns 0 when absent or malformed.
func argFloat(arg string) float64 {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0
	}
	return v
}

// argTypedString decodes a typed value like IFCLABEL('B1') or
// IFCIDENTIFIER('x'), falling back to plain string decoding.
func argTypedString(arg string) string {
	open := strings.Index(arg, "(")
	if open >= 0 && strings.HasSuffix(arg, ")") {
		return argString(strings.TrimSpace(arg[open+1 : len(arg)-1]))
	}
	return argString(arg)
}

// arg returns args[i] or "$" when the entity is shorter than expected.
func (e *entity) arg(i int) string {
	if i < 0 || i >= len(e.args) {
		return "$"
	}
	return e.args[i]
}
