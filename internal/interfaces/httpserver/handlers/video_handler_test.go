package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"clipvault/internal/config"
	domain "clipvault/internal/domain/video"
	"clipvault/internal/infrastructure/metrics"
	"clipvault/internal/infrastructure/stage"
	"clipvault/internal/interfaces/httpserver/handlers"
	v1 "clipvault/internal/interfaces/httpserver/routes/v1"
	"clipvault/internal/utils/platformerrors"
)

type memRepo struct {
	records map[string]domain.Video
}

func (r *memRepo) Insert(ctx context.Context, v *domain.Video) (*domain.Video, error) {
	record := *v
	record.UploadedAt = time.Now()
	r.records[record.ID] = record
	return &record, nil
}

func (r *memRepo) FindByID(ctx context.Context, id string) (*domain.Video, error) {
	record, ok := r.records[id]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "video record not found", nil)
	}
	return &record, nil
}

func (r *memRepo) ListAll(ctx context.Context) ([]domain.Video, error) {
	out := make([]domain.Video, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	return out, nil
}

func (r *memRepo) DeleteByID(ctx context.Context, id string) error {
	if _, ok := r.records[id]; !ok {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "video record not found", nil)
	}
	delete(r.records, id)
	return nil
}

type memStorage struct {
	objects map[string][]byte
}

func (s *memStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *memStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeNotFound, "object not found", nil)
	}
	return io.NopCloser(bytes.NewReader(data)), "video/mp4", nil
}

func (s *memStorage) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *memStorage) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if _, ok := s.objects[key]; !ok {
		return "", platformerrors.NewError(ctx, platformerrors.LayerInfrastructure,
			platformerrors.ErrorTypeNotFound, "object not found", nil)
	}
	return fmt.Sprintf("https://store.example/%s?X-Amz-Expires=%d", key, int(ttl.Seconds())), nil
}

type passthroughTranscoder struct{}

func (passthroughTranscoder) Transcode(ctx context.Context, inputPath, outputPath string) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0600)
}

func newRouter(t *testing.T) (*gin.Engine, *memRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		MaxVideoBytes: 1 << 20,
		SignedURLTTL:  time.Hour,
		StageDir:      t.TempDir(),
	}
	uploadStage, err := stage.New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("stage.New: %v", err)
	}
	repo := &memRepo{records: map[string]domain.Video{}}
	store := &memStorage{objects: map[string][]byte{}}
	service := domain.NewService(cfg, repo, store, passthroughTranscoder{}, uploadStage, zerolog.Nop())

	engine := gin.New()
	v1.NewRoutes(handlers.NewProvider(cfg, service, zerolog.Nop())).Register(engine.Group("/"))
	return engine, repo
}

func multipartUpload(t *testing.T, filename, contentType, body string) (*http.Request, error) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename)}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, strings.NewReader(body)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/videos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func TestUpload_Created(t *testing.T) {
	engine, _ := newRouter(t)

	req, err := multipartUpload(t, "clip.mov", "video/quicktime", "pretend video bytes")
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID         string `json:"id"`
		Mime       string `json:"mime"`
		StorageKey string `json:"storage_key"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.ID, "vid_") {
		t.Errorf("id = %q", resp.ID)
	}
	if resp.Mime != "video/mp4" {
		t.Errorf("mime = %q, want video/mp4", resp.Mime)
	}
	if !strings.HasPrefix(resp.StorageKey, "processed/") {
		t.Errorf("storage_key = %q", resp.StorageKey)
	}
}

func TestUpload_RejectsNonVideo(t *testing.T) {
	engine, repo := newRouter(t)

	req, err := multipartUpload(t, "report.pdf", "application/pdf", "%PDF-1.4")
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(repo.records) != 0 {
		t.Error("record created for a rejected upload")
	}
}

func TestUpload_RejectionDoesNotCountAsIngestError(t *testing.T) {
	engine, _ := newRouter(t)

	errorsBefore := testutil.ToFloat64(metrics.IngestsTotal.WithLabelValues("error"))
	rejectedBefore := testutil.ToFloat64(metrics.IngestsTotal.WithLabelValues("rejected"))

	req, err := multipartUpload(t, "report.pdf", "application/pdf", "%PDF-1.4")
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	if got := testutil.ToFloat64(metrics.IngestsTotal.WithLabelValues("error")); got != errorsBefore {
		t.Errorf("error counter = %v, want unchanged %v", got, errorsBefore)
	}
	if got := testutil.ToFloat64(metrics.IngestsTotal.WithLabelValues("rejected")); got != rejectedBefore+1 {
		t.Errorf("rejected counter = %v, want %v", got, rejectedBefore+1)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	engine, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/videos", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGet_NotFound(t *testing.T) {
	engine, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/videos/vid_00000000000000000000000000", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDelete_FlowAndNotFound(t *testing.T) {
	engine, repo := newRouter(t)

	req, err := multipartUpload(t, "clip.mov", "video/quicktime", "pretend video bytes")
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/videos/"+resp.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	if len(repo.records) != 0 {
		t.Error("record survived deletion")
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/videos/"+resp.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestAccessURL(t *testing.T) {
	engine, _ := newRouter(t)

	req, err := multipartUpload(t, "clip.mov", "video/quicktime", "pretend video bytes")
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}
	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &uploaded); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/videos/"+uploaded.ID+"/url", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		URL       string `json:"url"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("expires_in = %d, want 3600", resp.ExpiresIn)
	}
	if !strings.Contains(resp.URL, "X-Amz-Expires=3600") {
		t.Errorf("url = %q, want an expiry of 3600 seconds", resp.URL)
	}
}
