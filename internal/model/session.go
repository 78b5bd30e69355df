package model

import "time"

// ImportSession is the time-bounded, tenant-scoped staging record holding one
// file's parse result between upload and operator confirmation.
type ImportSession struct {
	ID string `json:"importSessionId"`

	// TenantID scopes the session; any access from a different tenant
	// behaves identically to a cache miss. UserID is kept for audit.
	TenantID string `json:"tenantId"`
	UserID   string `json:"userId"`

	DrawingID  int64  `json:"drawingId"`
	RevisionID int64  `json:"drawingRevisionId"`
	FileName   string `json:"fileName"`

	Result *ParseResult `json:"parseResult"`

	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session's expiry horizon has passed.
func (s *ImportSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
