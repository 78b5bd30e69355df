// Package parser orchestrates the import pipeline: format detection,
// extraction, identification, and aggregation into a parse result.
package parser

import (
	"bytes"

	"github.com/steelforge/takeoff/internal/common"
	"github.com/steelforge/takeoff/internal/model"
)

var (
	zipMagic   = []byte("PK\x03\x04")
	stepHeader = []byte("ISO-10303-21")
)

// DetectFormat sniffs the file content. The declared file name plays no part:
// an archive signature means SMLX and a STEP-21 header token means IFC.
func DetectFormat(data []byte) (model.FileFormat, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return model.FormatSMLX, nil
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), stepHeader) {
		return model.FormatIFC, nil
	}
	return "", common.NewFormatError("unknown", "content is neither a compressed archive nor STEP-21 text")
}
