package parser

import (
	"context"
	"log/slog"

	"github.com/steelforge/takeoff/internal/identify"
	"github.com/steelforge/takeoff/internal/ifc"
	"github.com/steelforge/takeoff/internal/model"
	"github.com/steelforge/takeoff/internal/smlx"
)

// Options configures a parser service.
type Options struct {
	// MaxUncompressedBytes caps archive decompression.
	MaxUncompressedBytes int64
	// MarkRules tunes the assembly mark heuristic.
	MarkRules identify.MarkRules
}

// Service runs the full pipeline for one uploaded file: detect the format,
// extract raw parts, annotate identification, and aggregate assemblies.
type Service struct {
	smlx  *smlx.Extractor
	ifc   *ifc.Extractor
	rules identify.MarkRules
}

// NewService creates a parser service.
func NewService(opts Options) *Service {
	return &Service{
		smlx:  smlx.NewExtractor(opts.MaxUncompressedBytes),
		ifc:   ifc.NewExtractor(),
		rules: opts.MarkRules,
	}
}

type extractOutcome struct {
	parts    []*model.ParsedPart
	warnings []model.Warning
	err      error
}

// Parse processes one file into a parse result. Extraction is a single
// synchronous traversal run off the calling goroutine so a pathological file
// honors ctx cancellation and deadlines as a whole; per-element failures are
// absorbed into the result's warnings instead.
func (s *Service) Parse(ctx context.Context, fileName string, data []byte) (*model.ParseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}

	slog.Info("Parsing file", "file", fileName, "format", format, "bytes", len(data))

	done := make(chan extractOutcome, 1)
	go func() {
		var out extractOutcome
		switch format {
		case model.FormatSMLX:
			out.parts, out.warnings, out.err = s.smlx.Extract(ctx, data)
		case model.FormatIFC:
			out.parts, out.warnings, out.err = s.ifc.Extract(ctx, data)
		}
		done <- out
	}()

	var out extractOutcome
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out = <-done:
	}
	if out.err != nil {
		return nil, out.err
	}

	// Counters and temp ids are seeded per parse.
	engine := identify.NewEngine(s.rules)
	engine.AnnotateParts(out.parts)
	assemblies, loose := engine.Aggregate(out.parts)

	result := &model.ParseResult{
		FileType:   format,
		Assemblies: assemblies,
		LooseParts: loose,
		Warnings:   out.warnings,
	}
	result.Recount()

	slog.Info("Parse complete",
		"file", fileName,
		"format", format,
		"total", result.TotalElementCount,
		"identified", result.IdentifiedCount,
		"unidentified", result.UnidentifiedCount,
		"assemblies", result.AssemblyCount,
		"warnings", len(result.Warnings))

	return result, nil
}
