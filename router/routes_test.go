package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/answer-images/database"
	handler "github.com/krishkalaria12/answer-images/handlers"
	"github.com/krishkalaria12/answer-images/middleware"
	"github.com/krishkalaria12/answer-images/models"
	"github.com/krishkalaria12/answer-images/services"
	"github.com/krishkalaria12/answer-images/storage"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func newTestApp(t *testing.T) (*fiber.App, *storage.MemoryStore) {
	t.Helper()

	db, err := database.Connect("sqlite", ":memory:", "silent")
	if err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	if err := database.MigrateModels(db, &models.AnswerImage{}); err != nil {
		t.Fatalf("MigrateModels error: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	blobs := storage.NewMemoryStore("http://localhost:3000")
	svc := services.NewImageUploadService(db, blobs, "answerimages")

	opts := Options{MemoryBlobs: blobs}
	app := NewApp(opts)
	SetupRoutes(app, handler.NewAnswerImagesHandler(svc), opts)
	return app, blobs
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, string(body)
}

// csrfFrom performs a GET on path and returns the anti-forgery token cookie.
func csrfFrom(t *testing.T, app *fiber.App, path string) string {
	t.Helper()
	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, path, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: expected 200, got %d", path, resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == middleware.CSRFCookieName {
			if !strings.Contains(body, c.Value) {
				t.Fatalf("expected form to embed csrf token")
			}
			return c.Value
		}
	}
	t.Fatalf("GET %s: no csrf cookie set", path)
	return ""
}

func uploadRequest(t *testing.T, token, fileName string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if token != "" {
		if err := w.WriteField(middleware.CSRFFormField, token); err != nil {
			t.Fatalf("WriteField error: %v", err)
		}
	}
	part, err := w.CreateFormFile("answerImage", fileName)
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/AnswerImages/Upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: token})
	}
	return req
}

func deleteRequest(token, id string) *http.Request {
	form := url.Values{middleware.CSRFFormField: {token}}
	req := httptest.NewRequest(http.MethodPost, "/AnswerImages/Delete/"+id, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: token})
	return req
}

func TestIndex_Empty(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/AnswerImages", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "No images uploaded yet.") {
		t.Errorf("expected empty list message, got %s", body)
	}
	if resp.Header.Get(fiber.HeaderXRequestID) == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRoot_RedirectsToIndex(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/AnswerImages" {
		t.Errorf("expected redirect to /AnswerImages, got %q", loc)
	}
}

func TestUpload_ThenListAndServeBlob(t *testing.T) {
	app, blobs := newTestApp(t)
	token := csrfFrom(t, app, "/AnswerImages/Upload")

	resp, _ := doRequest(t, app, uploadRequest(t, token, "cat.png", pngBytes))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 after upload, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/AnswerImages" {
		t.Errorf("expected redirect to /AnswerImages, got %q", loc)
	}

	_, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/AnswerImages", nil))
	if !strings.Contains(body, "cat.png") {
		t.Errorf("expected list to contain cat.png, got %s", body)
	}
	if !strings.Contains(body, "/AnswerImages/Delete/1") {
		t.Errorf("expected delete link for id 1")
	}

	if _, _, ok := blobs.Get("answerimages", "cat.png"); !ok {
		t.Fatal("expected blob in store")
	}

	resp, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/blobs/answerimages/cat.png", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected blob served with 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("expected image/png, got %q", resp.Header.Get("Content-Type"))
	}
	if body != string(pngBytes) {
		t.Error("served blob does not match upload")
	}
}

func TestUpload_WithoutTokenForbidden(t *testing.T) {
	app, blobs := newTestApp(t)

	resp, _ := doRequest(t, app, uploadRequest(t, "", "cat.png", pngBytes))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if len(blobs.Keys("answerimages")) != 0 {
		t.Fatal("expected no blob stored")
	}
}

func TestUpload_InvalidFileNameIsBadRequest(t *testing.T) {
	app, _ := newTestApp(t)
	token := csrfFrom(t, app, "/AnswerImages/Upload")

	resp, body := doRequest(t, app, uploadRequest(t, token, "empty.png", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "could not be accepted") {
		t.Errorf("expected error view, got %s", body)
	}
}

func TestDelete_ConfirmAndRemove(t *testing.T) {
	app, blobs := newTestApp(t)
	token := csrfFrom(t, app, "/AnswerImages/Upload")
	if resp, _ := doRequest(t, app, uploadRequest(t, token, "cat.png", pngBytes)); resp.StatusCode != http.StatusFound {
		t.Fatalf("upload failed with %d", resp.StatusCode)
	}

	deleteToken := csrfFrom(t, app, "/AnswerImages/Delete/1")

	resp, _ := doRequest(t, app, deleteRequest(deleteToken, "1"))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 after delete, got %d", resp.StatusCode)
	}
	if len(blobs.Keys("answerimages")) != 0 {
		t.Fatal("expected blob removed")
	}

	resp, _ = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/AnswerImages/Delete/1", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted id, got %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, app, deleteRequest(deleteToken, "1"))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", resp.StatusCode)
	}
}

func TestDeleteConfirm_BadID(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{"/AnswerImages/Delete/99", "/AnswerImages/Delete/abc", "/AnswerImages/Delete/0"} {
		resp, _ := doRequest(t, app, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestAPI_ListAndGet(t *testing.T) {
	app, _ := newTestApp(t)
	token := csrfFrom(t, app, "/AnswerImages/Upload")
	if resp, _ := doRequest(t, app, uploadRequest(t, token, "cat.png", pngBytes)); resp.StatusCode != http.StatusFound {
		t.Fatalf("upload failed with %d", resp.StatusCode)
	}

	resp, body := doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/answer-images", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var list struct {
		Status string               `json:"status"`
		Data   []models.AnswerImage `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if list.Status != "success" || len(list.Data) != 1 {
		t.Fatalf("unexpected list response: %+v", list)
	}
	if list.Data[0].URL != "http://localhost:3000/blobs/answerimages/cat.png" {
		t.Errorf("unexpected url %q", list.Data[0].URL)
	}

	resp, body = doRequest(t, app, httptest.NewRequest(http.MethodGet, "/api/answer-images/7", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"status":"error"`) {
		t.Errorf("expected JSON error body, got %s", body)
	}
}

type failingService struct{}

func (failingService) List(ctx context.Context) ([]models.AnswerImage, error) { return nil, nil }
func (failingService) Get(ctx context.Context, id uint) (*models.AnswerImage, error) {
	return &models.AnswerImage{ID: id, FileName: "cat.png", URL: "https://example.com/answerimages/cat.png"}, nil
}
func (failingService) Upload(ctx context.Context, fileName string, data []byte) (*models.AnswerImage, error) {
	return nil, services.ErrUploadFailed
}
func (failingService) Delete(ctx context.Context, id uint) error {
	return services.ErrStorageUnavailable
}

func TestStorageFailures_RenderErrorView(t *testing.T) {
	opts := Options{}
	app := NewApp(opts)
	SetupRoutes(app, handler.NewAnswerImagesHandler(failingService{}), opts)

	token := csrfFrom(t, app, "/AnswerImages/Upload")
	resp, body := doRequest(t, app, uploadRequest(t, token, "cat.png", pngBytes))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for failed upload, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "could not be uploaded") {
		t.Errorf("expected upload error view, got %s", body)
	}

	resp, body = doRequest(t, app, deleteRequest(token, "1"))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for failed delete, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "could not be deleted") {
		t.Errorf("expected delete error view, got %s", body)
	}
}
