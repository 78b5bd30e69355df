package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/steelforge/takeoff/internal/identify"
	"github.com/steelforge/takeoff/internal/model"
	"github.com/steelforge/takeoff/internal/parser"
	"github.com/steelforge/takeoff/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadXML = `<?xml version="1.0"?>
<Document>
  <Object class="CGREXBeam">
    <Members>
      <m_strName string="310UB40" />
      <m_ExactWeight double="241.2" />
      <Object class="CGREXObject">
        <Members><m_strSinglePartMark string="B1" /><m_strMark string="FRAME-A1" /></Members>
      </Object>
    </Members>
  </Object>
  <Object class="CGREXPlate">
    <Members>
      <m_strName string="PL 10" />
    </Members>
  </Object>
</Document>`

func newTestServer(t *testing.T, maxUncompressed int64) http.Handler {
	t.Helper()

	store := session.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	parserSvc := parser.NewService(parser.Options{
		MaxUncompressedBytes: maxUncompressed,
		MarkRules:            identify.DefaultMarkRules(),
	})
	sessionSvc := session.NewService(store, 30*time.Minute)

	return New(parserSvc, sessionSvc).Routes()
}

func uploadArchive(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("Contents/model.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(uploadXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func uploadRequest(t *testing.T, archive []byte, tenantID string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "job.smlx")
	require.NoError(t, err)
	_, err = fw.Write(archive)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("drawingId", "7"))
	require.NoError(t, mw.WriteField("revisionId", "2"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import-sessions", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if tenantID != "" {
		req.Header.Set("X-Tenant-ID", tenantID)
		req.Header.Set("X-User-ID", "user-1")
	}
	return req
}

func createUpload(t *testing.T, handler http.Handler) model.SessionPreview {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, uploadArchive(t), "tenant-a"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var preview model.SessionPreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	return preview
}

func TestCreateImportSession(t *testing.T) {
	handler := newTestServer(t, 1<<20)

	preview := createUpload(t, handler)

	assert.NotEmpty(t, preview.ImportSessionID)
	assert.Equal(t, model.StatusPendingReview, preview.Status)
	assert.Equal(t, int64(7), preview.DrawingID)
	assert.Equal(t, int64(2), preview.RevisionID)
	assert.Equal(t, "job.smlx", preview.FileName)
	assert.Equal(t, 2, preview.TotalElementCount)
	assert.Equal(t, 1, preview.IdentifiedCount)
	assert.Equal(t, 1, preview.UnidentifiedCount)
	require.Len(t, preview.Assemblies, 1)
	assert.Equal(t, "FRAME-A1", preview.Assemblies[0].AssemblyMark)
}

func TestCreateRequiresTenantHeader(t *testing.T) {
	handler := newTestServer(t, 1<<20)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, uploadArchive(t), ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRejectsUnknownContent(t *testing.T) {
	handler := newTestServer(t, 1<<20)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, []byte("not a cad file"), "tenant-a"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRejectsOversizedArchive(t *testing.T) {
	handler := newTestServer(t, 64)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, uploadRequest(t, uploadArchive(t), "tenant-a"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPreviewRoundTrip(t *testing.T) {
	handler := newTestServer(t, 1<<20)
	created := createUpload(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/import-sessions/"+created.ImportSessionID+"/preview", nil)
	req.Header.Set("X-Tenant-ID", "tenant-a")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var preview model.SessionPreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, created.ImportSessionID, preview.ImportSessionID)
	assert.Equal(t, 1, preview.UnidentifiedCount)
}

func TestPreviewTenantMismatchIs404(t *testing.T) {
	handler := newTestServer(t, 1<<20)
	created := createUpload(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/import-sessions/"+created.ImportSessionID+"/preview", nil)
	req.Header.Set("X-Tenant-ID", "tenant-b")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Indistinguishable from a session that never existed.
	req = httptest.NewRequest(http.MethodGet, "/api/import-sessions/no-such-session/preview", nil)
	req.Header.Set("X-Tenant-ID", "tenant-b")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmAppliesMappings(t *testing.T) {
	handler := newTestServer(t, 1<<20)
	created := createUpload(t, handler)

	body := strings.NewReader(`{"autoGenerateRemainingReferences":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/import-sessions/"+created.ImportSessionID+"/confirm", body)
	req.Header.Set("X-Tenant-ID", "tenant-a")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result model.ParseResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.IdentifiedCount)
	assert.Equal(t, 0, result.UnidentifiedCount)
	require.Len(t, result.LooseParts, 1)
	assert.Equal(t, "PL10-1", result.LooseParts[0].PartReference)
}

func TestConfirmBadBody(t *testing.T) {
	handler := newTestServer(t, 1<<20)
	created := createUpload(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/api/import-sessions/"+created.ImportSessionID+"/confirm", strings.NewReader("{"))
	req.Header.Set("X-Tenant-ID", "tenant-a")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveSession(t *testing.T) {
	handler := newTestServer(t, 1<<20)
	created := createUpload(t, handler)

	req := httptest.NewRequest(http.MethodDelete, "/api/import-sessions/"+created.ImportSessionID, nil)
	req.Header.Set("X-Tenant-ID", "tenant-a")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// Gone afterwards.
	req = httptest.NewRequest(http.MethodGet, "/api/import-sessions/"+created.ImportSessionID+"/preview", nil)
	req.Header.Set("X-Tenant-ID", "tenant-a")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	handler := newTestServer(t, 1<<20)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
