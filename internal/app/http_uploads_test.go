package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func (ts *testServer) doUpload(t *testing.T, path string, body *bytes.Buffer, contentType string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestGalleryUpload(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.signUpAndSignIn(t, "gallery@example.com")

	body, contentType := multipartUpload(t, "image/jpeg", 1024, map[string]string{"caption": "First dance"})
	rec := ts.doUpload(t, "/api/uploads/gallery", body, contentType, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	item := decodeResponse(t, rec)["item"].(map[string]any)
	if item["caption"] != "First dance" {
		t.Errorf("caption = %v", item["caption"])
	}
	url, _ := item["url"].(string)
	if !strings.HasPrefix(url, "https://cdn.test/") {
		t.Errorf("url = %q, want cdn prefix", url)
	}

	rec = ts.do(t, http.MethodGet, "/api/gallery", nil, cookie)
	if items := decodeResponse(t, rec)["gallery"].([]any); len(items) != 1 {
		t.Errorf("gallery length = %d, want 1", len(items))
	}
}

func TestGalleryUploadValidation(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.signUpAndSignIn(t, "gallery-validation@example.com")

	t.Run("no file field", func(t *testing.T) {
		var buf bytes.Buffer
		rec := ts.doUpload(t, "/api/uploads/gallery", &buf, "multipart/form-data; boundary=empty", cookie)
		payload := assertErrorBody(t, rec, http.StatusBadRequest, "INVALID_UPLOAD")
		if payload["error"] != "No file provided" {
			t.Errorf("error = %v", payload["error"])
		}
	})

	t.Run("disallowed type", func(t *testing.T) {
		body, contentType := multipartUpload(t, "application/pdf", 1024, nil)
		rec := ts.doUpload(t, "/api/uploads/gallery", body, contentType, cookie)
		payload := assertErrorBody(t, rec, http.StatusBadRequest, "INVALID_UPLOAD")
		if payload["error"] != "Invalid file type" {
			t.Errorf("error = %v", payload["error"])
		}
	})

	t.Run("over the 4MB ceiling", func(t *testing.T) {
		body, contentType := multipartUpload(t, "image/png", 4<<20+1, nil)
		rec := ts.doUpload(t, "/api/uploads/gallery", body, contentType, cookie)
		payload := assertErrorBody(t, rec, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE")
		if payload["error"] != "File size exceeds 4MB limit" {
			t.Errorf("error = %v", payload["error"])
		}
	})

	t.Run("exactly at the ceiling", func(t *testing.T) {
		body, contentType := multipartUpload(t, "image/png", 4<<20, nil)
		rec := ts.doUpload(t, "/api/uploads/gallery", body, contentType, cookie)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	})
}

func TestGalleryDeleteRemovesBlob(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.signUpAndSignIn(t, "gallery-delete@example.com")

	body, contentType := multipartUpload(t, "image/webp", 512, nil)
	rec := ts.doUpload(t, "/api/uploads/gallery", body, contentType, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d", rec.Code)
	}
	id := decodeResponse(t, rec)["item"].(map[string]any)["id"].(string)

	rec = ts.do(t, http.MethodDelete, "/api/gallery/"+id, nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body %s", rec.Code, rec.Body.String())
	}

	if len(ts.blobs.removed) != 1 {
		t.Fatalf("removed blobs = %d, want 1", len(ts.blobs.removed))
	}

	rec = ts.do(t, http.MethodGet, "/api/gallery", nil, cookie)
	if items := decodeResponse(t, rec)["gallery"].([]any); len(items) != 0 {
		t.Errorf("gallery length = %d, want 0", len(items))
	}

	t.Run("deleting again is a 404", func(t *testing.T) {
		rec := ts.do(t, http.MethodDelete, "/api/gallery/"+id, nil, cookie)
		assertErrorBody(t, rec, http.StatusNotFound, "NOT_FOUND")
	})
}

func TestSectionUpload(t *testing.T) {
	ts := newTestServer(t)
	cookie := ts.signUpAndSignIn(t, "sections@example.com")

	t.Run("image slot", func(t *testing.T) {
		body, contentType := multipartUpload(t, "image/png", 2048, map[string]string{"section": "hero"})
		rec := ts.doUpload(t, "/api/uploads/section", body, contentType, cookie)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		m := decodeResponse(t, rec)["media"].(map[string]any)
		if m["section"] != "hero" || m["kind"] != "image" {
			t.Errorf("section/kind = %v/%v", m["section"], m["kind"])
		}
	})

	t.Run("video slot with its own ceiling", func(t *testing.T) {
		body, contentType := multipartUpload(t, "video/mp4", 11<<20, map[string]string{"section": "hero", "kind": "video"})
		rec := ts.doUpload(t, "/api/uploads/section", body, contentType, cookie)
		if rec.Code != http.StatusCreated {
			t.Fatalf("an 11MB video is within the 50MB limit, status = %d, body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("image over its 10MB ceiling", func(t *testing.T) {
		body, contentType := multipartUpload(t, "image/png", 10<<20+1, map[string]string{"section": "story"})
		rec := ts.doUpload(t, "/api/uploads/section", body, contentType, cookie)
		payload := assertErrorBody(t, rec, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE")
		if payload["error"] != "File size exceeds 10MB limit" {
			t.Errorf("error = %v", payload["error"])
		}
	})

	t.Run("missing section name", func(t *testing.T) {
		body, contentType := multipartUpload(t, "image/png", 1024, nil)
		rec := ts.doUpload(t, "/api/uploads/section", body, contentType, cookie)
		assertErrorBody(t, rec, http.StatusBadRequest, "VALIDATION_ERROR")
	})

	t.Run("replacing a slot keeps one row", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			body, contentType := multipartUpload(t, "image/png", 1024, map[string]string{"section": "venue"})
			rec := ts.doUpload(t, "/api/uploads/section", body, contentType, cookie)
			if rec.Code != http.StatusCreated {
				t.Fatalf("upload %d status = %d", i, rec.Code)
			}
		}
		sections, err := ts.store.ListSectionMedia(context.Background(), ts.sessionConfigID(t, cookie))
		if err != nil {
			t.Fatal(err)
		}
		var venueRows int
		for _, m := range sections {
			if m.Section == "venue" {
				venueRows++
			}
		}
		if venueRows != 1 {
			t.Errorf("venue rows = %d, want 1", venueRows)
		}
	})
}

// sessionConfigID resolves the wedding config id behind a cookie.
func (ts *testServer) sessionConfigID(t *testing.T, cookie *http.Cookie) string {
	t.Helper()
	rec := ts.do(t, http.MethodGet, "/api/session", nil, cookie)
	id, _ := decodeResponse(t, rec)["weddingConfigId"].(string)
	if id == "" {
		t.Fatal("no weddingConfigId for cookie")
	}
	return id
}
