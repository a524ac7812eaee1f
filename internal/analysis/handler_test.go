package analysis_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"scholarai-backend/internal/bootstrap"
	"scholarai-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:             "0",
		Env:              "dev",
		CORSAllowOrigins: []string{"http://localhost:5173"},
		ObjectStoreType:  "local",
		LocalStoreDir:    t.TempDir(),
		MaxUploadBytes:   1 << 20,
		ChunkSize:        1200,
	}

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func TestAnalyzeUnknownPaperReturns404(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers/7f8b2c3d-0000-4000-8000-000000000000/analyze", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestAnalyzeMalformedIDReturns400(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/papers/nope/analyze", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestGetAnalysisBeforeAnyRunReturns404(t *testing.T) {
	app := buildTestApp(t)

	// Upload a paper but never analyze it.
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", "paper.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("%PDF-1.4 content")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	upload := httptest.NewRequest(http.MethodPost, "/api/v1/papers", body)
	upload.Header.Set("Content-Type", writer.FormDataContentType())
	uploadResp := httptest.NewRecorder()
	app.Router.ServeHTTP(uploadResp, upload)
	if uploadResp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", uploadResp.Code)
	}

	var created struct {
		PaperID string `json:"paperId"`
	}
	if err := json.NewDecoder(uploadResp.Body).Decode(&created); err != nil {
		t.Fatalf("decode upload: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/papers/"+created.PaperID+"/analysis", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestAnalyzeUnparseableUploadFailsAndIsTerminal(t *testing.T) {
	app := buildTestApp(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", "broken.pdf")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("this is not a pdf")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	upload := httptest.NewRequest(http.MethodPost, "/api/v1/papers", body)
	upload.Header.Set("Content-Type", writer.FormDataContentType())
	uploadResp := httptest.NewRecorder()
	app.Router.ServeHTTP(uploadResp, upload)
	if uploadResp.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", uploadResp.Code)
	}

	var created struct {
		PaperID string `json:"paperId"`
	}
	if err := json.NewDecoder(uploadResp.Body).Decode(&created); err != nil {
		t.Fatalf("decode upload: %v", err)
	}

	analyze := httptest.NewRequest(http.MethodPost, "/api/v1/papers/"+created.PaperID+"/analyze", nil)
	analyzeResp := httptest.NewRecorder()
	app.Router.ServeHTTP(analyzeResp, analyze)
	if analyzeResp.Code != http.StatusInternalServerError {
		t.Fatalf("analyze status = %d, want 500", analyzeResp.Code)
	}

	// The paper is FAILED now, so a second attempt is rejected as claimed.
	retry := httptest.NewRequest(http.MethodPost, "/api/v1/papers/"+created.PaperID+"/analyze", nil)
	retryResp := httptest.NewRecorder()
	app.Router.ServeHTTP(retryResp, retry)
	if retryResp.Code != http.StatusConflict {
		t.Fatalf("retry status = %d, want 409", retryResp.Code)
	}

	// And the status is visible on the paper resource.
	get := httptest.NewRequest(http.MethodGet, "/api/v1/papers/"+created.PaperID, nil)
	getResp := httptest.NewRecorder()
	app.Router.ServeHTTP(getResp, get)

	var paper struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(getResp.Body).Decode(&paper); err != nil {
		t.Fatalf("decode paper: %v", err)
	}
	if paper.Status != "FAILED" {
		t.Fatalf("status = %q, want FAILED", paper.Status)
	}
}
