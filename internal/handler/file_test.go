package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"
	"tush00nka/bbbab_files/internal/model"
	"tush00nka/bbbab_files/internal/service"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubFileService struct {
	uploads   []service.UploadInput
	contents  [][]byte
	uploadErr error

	files   []model.FileRecord
	listErr error

	urls map[string]string
}

func (s *stubFileService) Upload(_ context.Context, in service.UploadInput) (*model.FileRecord, error) {
	body, err := io.ReadAll(in.Content)
	if err != nil {
		return nil, err
	}
	s.uploads = append(s.uploads, in)
	s.contents = append(s.contents, body)
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &model.FileRecord{
		FileName:   in.Filename,
		FileSize:   int64(len(body)),
		UploadDate: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		S3URL:      "https://bucket.example/" + in.Filename + "?sig",
	}, nil
}

func (s *stubFileService) List(context.Context) ([]model.FileRecord, error) {
	return s.files, s.listErr
}

func (s *stubFileService) DownloadURL(_ context.Context, fileName string) (string, error) {
	url, ok := s.urls[fileName]
	if !ok {
		return "", fmt.Errorf("%w: %s", service.ErrNotFound, fileName)
	}
	return url, nil
}

func (s *stubFileService) LinkExpiry() time.Duration {
	return time.Hour
}

func newTestRouter(t *testing.T, svc service.FileService, maxBytes int64) *mux.Router {
	t.Helper()
	h := NewFileHandler(svc, FileHandlerOptions{
		MaxUploadBytes:    maxBytes,
		AllowedExtensions: []string{"txt", "pdf"},
	}, zaptest.NewLogger(t))

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router
}

// multipartBody builds a form with one part. With fileName == nil the part
// is a plain field without a filename parameter.
func multipartBody(t *testing.T, field string, fileName *string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	disposition := fmt.Sprintf(`form-data; name="%s"`, field)
	if fileName != nil {
		disposition += fmt.Sprintf(`; filename="%s"`, *fileName)
		header.Set("Content-Type", "application/octet-stream")
	}
	header.Set("Content-Disposition", disposition)

	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func strPtr(s string) *string { return &s }

func TestUploadFormRedirectsOnSuccess(t *testing.T) {
	svc := &stubFileService{}
	router := newTestRouter(t, svc, 1<<20)

	body, contentType := multipartBody(t, "file", strPtr("report.pdf"), bytes.Repeat([]byte("a"), 1024))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	require.Len(t, svc.uploads, 1)
	assert.Equal(t, "report.pdf", svc.uploads[0].Filename)
	assert.Len(t, svc.contents[0], 1024)
}

func TestUploadFormMissingPart(t *testing.T) {
	svc := &stubFileService{}
	router := newTestRouter(t, svc, 1<<20)

	body, contentType := multipartBody(t, "other", strPtr("report.pdf"), []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "No file part")
	assert.Empty(t, svc.uploads)
}

func TestUploadFormNotMultipart(t *testing.T) {
	svc := &stubFileService{}
	router := newTestRouter(t, svc, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("file=report.pdf"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "No file part")
}

func TestUploadFormEmptyFilename(t *testing.T) {
	svc := &stubFileService{}
	router := newTestRouter(t, svc, 1<<20)

	body, contentType := multipartBody(t, "file", strPtr(""), nil)
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "No selected file")
	assert.Empty(t, svc.uploads)
}

func TestUploadFormTooLarge(t *testing.T) {
	svc := &stubFileService{}
	router := newTestRouter(t, svc, 512)

	body, contentType := multipartBody(t, "file", strPtr("big.txt"), bytes.Repeat([]byte("a"), 4096))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Empty(t, svc.uploads)
}

func TestUploadErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"unsupported type", fmt.Errorf("%w: %q", service.ErrUnsupportedFileType, "x.exe"), http.StatusUnsupportedMediaType, "File type not allowed"},
		{"staging", fmt.Errorf("%w: disk full", service.ErrStagingWrite), http.StatusInternalServerError, "Failed to save file"},
		{"object store", fmt.Errorf("%w: access denied", service.ErrObjectStoreUpload), http.StatusBadGateway, "Failed to upload file to storage"},
		{"presign", fmt.Errorf("%w: no creds", service.ErrDownloadLinkGeneration), http.StatusBadGateway, "Error generating download link"},
		{"metadata", fmt.Errorf("%w: db down", service.ErrMetadataWrite), http.StatusInternalServerError, "Failed to save file metadata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubFileService{uploadErr: tt.err}
			router := newTestRouter(t, svc, 1<<20)

			body, contentType := multipartBody(t, "file", strPtr("notes.txt"), []byte("hello"))
			req := httptest.NewRequest(http.MethodPost, "/api/files", body)
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			var resp struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMsg, resp.Message)
			assert.NotContains(t, rr.Body.String(), tt.err.Error())
		})
	}
}

func TestAPIUploadReturnsRecord(t *testing.T) {
	svc := &stubFileService{}
	router := newTestRouter(t, svc, 1<<20)

	body, contentType := multipartBody(t, "file", strPtr("notes.txt"), []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp FileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "notes.txt", resp.FileName)
	assert.Equal(t, int64(5), resp.FileSize)
	assert.Equal(t, "/download/notes.txt", resp.DownloadPath)
}

func TestIndexRendersListing(t *testing.T) {
	svc := &stubFileService{files: []model.FileRecord{
		{FileName: "report.pdf", FileSize: 1024, UploadDate: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)},
	}}
	router := newTestRouter(t, svc, 1<<20)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	page := rr.Body.String()
	assert.Contains(t, page, `enctype="multipart/form-data"`)
	assert.Contains(t, page, `href="/download/report.pdf"`)
	assert.Contains(t, page, "1.0 kB")
	assert.Contains(t, page, "2026-10-01 12:00:00")
}

func TestIndexListFailure(t *testing.T) {
	svc := &stubFileService{listErr: fmt.Errorf("%w: connection refused", service.ErrMetadataRead)}
	router := newTestRouter(t, svc, 1<<20)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection refused")
}

func TestListFilesJSON(t *testing.T) {
	svc := &stubFileService{files: []model.FileRecord{
		{FileName: "a.txt", FileSize: 1},
		{FileName: "b.png", FileSize: 2},
	}}
	router := newTestRouter(t, svc, 1<<20)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/files", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp []FileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "b.png", resp[1].FileName)
}

func TestDownloadRedirects(t *testing.T) {
	svc := &stubFileService{urls: map[string]string{"report.pdf": "https://bucket.example/report.pdf?X-Amz-Signature=abc"}}
	router := newTestRouter(t, svc, 1<<20)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/download/report.pdf", nil))

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "https://bucket.example/report.pdf?X-Amz-Signature=abc", rr.Header().Get("Location"))
}

func TestDownloadMissing(t *testing.T) {
	router := newTestRouter(t, &stubFileService{}, 1<<20)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/download/missing.txt", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBrowserRoutesAnswerPlainText(t *testing.T) {
	svc := &stubFileService{uploadErr: fmt.Errorf("%w: exe", service.ErrUnsupportedFileType)}
	router := newTestRouter(t, svc, 1<<20)

	body, contentType := multipartBody(t, "file", strPtr("report.pdf"), []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "File type not allowed\n", rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/download/missing.txt", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "File not found\n", rr.Body.String())
}

func TestDownloadURLJSON(t *testing.T) {
	svc := &stubFileService{urls: map[string]string{"a.txt": "https://bucket.example/a.txt?sig"}}
	router := newTestRouter(t, svc, 1<<20)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/files/a.txt/url", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp DownloadURLResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "https://bucket.example/a.txt?sig", resp.URL)
	assert.Equal(t, 3600, resp.ExpiresIn)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/files/nope.txt/url", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
