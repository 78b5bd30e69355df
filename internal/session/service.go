package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/steelforge/takeoff/internal/common"
	"github.com/steelforge/takeoff/internal/model"
)

// FileMeta identifies the drawing revision an uploaded file belongs to.
type FileMeta struct {
	DrawingID  int64
	RevisionID int64
	FileName   string
}

// Service owns the session lifecycle: staging parse results, serving
// previews, applying mappings, and eviction. Every operation is
// tenant-checked; a tenant mismatch is indistinguishable from a missing
// session.
type Service struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	newID func() string
}

// NewService creates a session service with the given staging store and
// session time-to-live.
func NewService(store Store, ttl time.Duration) *Service {
	return &Service{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// CreateSession stages a parse result under a fresh session id and returns
// the preview projection.
func (s *Service) CreateSession(ctx context.Context, meta FileMeta, result *model.ParseResult, tenantID, userID string) (*model.SessionPreview, error) {
	if result == nil {
		return nil, fmt.Errorf("parse result is required")
	}
	if tenantID == "" {
		return nil, fmt.Errorf("tenant id is required")
	}

	now := s.now()
	session := &model.ImportSession{
		ID:         s.newID(),
		TenantID:   tenantID,
		UserID:     userID,
		DrawingID:  meta.DrawingID,
		RevisionID: meta.RevisionID,
		FileName:   meta.FileName,
		Result:     result,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create import session: %w", err)
	}

	slog.Info("Import session created",
		"session", session.ID,
		"tenant", tenantID,
		"file", meta.FileName,
		"expires", session.ExpiresAt)

	return model.NewPreview(session), nil
}

// GetPreview returns the preview projection of a staged session.
func (s *Service) GetPreview(ctx context.Context, id, tenantID string) (*model.SessionPreview, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.TenantID != tenantID {
		return nil, common.ErrSessionNotFound
	}

	return model.NewPreview(session), nil
}

// ApplyMappings merges the operator's identification decisions into the
// stored parse result and returns the final result. Entries referencing
// unknown temp ids are rejected individually; the rest still apply.
// Reapplying the same request is a no-op.
func (s *Service) ApplyMappings(ctx context.Context, id string, req *model.MappingRequest, tenantID string) (*model.ParseResult, error) {
	if req == nil {
		return nil, fmt.Errorf("mapping request is required")
	}

	updated, err := s.store.Update(ctx, id, func(session *model.ImportSession) error {
		if session.TenantID != tenantID {
			return common.ErrSessionNotFound
		}
		applyMappings(session.Result, req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Mappings applied",
		"session", id,
		"tenant", tenantID,
		"identified", updated.Result.IdentifiedCount,
		"unidentified", updated.Result.UnidentifiedCount)

	return updated.Result, nil
}

// RemoveSession evicts a staged session after the caller has durably
// persisted the confirmed result elsewhere.
func (s *Service) RemoveSession(ctx context.Context, id, tenantID string) error {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if session.TenantID != tenantID {
		return common.ErrSessionNotFound
	}

	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}

	slog.Info("Import session removed", "session", id, "tenant", tenantID)
	return nil
}

// applyMappings mutates result in place: explicit part mappings first, then
// auto-generation for the remainder, then assembly mappings, repartition, and
// a recount. Entries referencing unknown temp ids are recorded on the
// result's warning list. A part's promotion clears its suggestion, which also
// makes reapplication a no-op.
func applyMappings(result *model.ParseResult, req *model.MappingRequest) {
	for _, m := range req.PartMappings {
		if m.PartReference == "" {
			continue
		}
		part := result.FindPart(m.TempPartID)
		if part == nil {
			rejectMapping(result, m.TempPartID)
			continue
		}
		part.PartReference = m.PartReference
		part.Identified = true
		part.SuggestedReference = ""
	}

	if req.AutoGenerateRemaining {
		for _, part := range result.AllParts() {
			if part.Identified || part.SuggestedReference == "" {
				continue
			}
			part.PartReference = part.SuggestedReference
			part.Identified = true
			part.SuggestedReference = ""
		}
	}

	for _, m := range req.AssemblyMappings {
		if m.AssemblyMark == "" {
			continue
		}
		asm := result.FindAssembly(m.TempAssemblyID)
		if asm == nil {
			rejectMapping(result, m.TempAssemblyID)
			continue
		}
		asm.Mark = m.AssemblyMark
		asm.Name = m.AssemblyName
		if asm.Name == "" {
			asm.Name = m.AssemblyMark
		}
		asm.Identified = true
		asm.SuggestedMark = ""
	}

	for _, asm := range result.Assemblies {
		asm.Repartition()
		asm.RecomputeTotalWeight()
	}
	result.Recount()
}

// rejectMapping records a mapping entry whose temp id is not in the result.
// The rejection is kept on the result's warning list so the caller can see
// it; reapplying the same request does not record it twice.
func rejectMapping(result *model.ParseResult, tempID string) {
	err := &common.MappingError{TempID: tempID}
	slog.Warn("Rejected mapping entry", "error", err)

	for _, w := range result.Warnings {
		if w.Element == "MAPPING" && w.Reason == err.Error() {
			return
		}
	}
	result.Warnings = append(result.Warnings, model.Warning{
		Element: "MAPPING",
		Reason:  err.Error(),
	})
}
