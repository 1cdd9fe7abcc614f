package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wedloft/api/internal/auth"
	"wedloft/api/internal/authpw"
	"wedloft/api/internal/reconcile"
	"wedloft/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleAuthSignUp(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleAuthSignIn(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/verify-email" {
		s.handleAuthVerifyEmail(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password/request" {
		s.handleAuthRequestReset(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password" {
		s.handleAuthResetPassword(w, r)
		return
	}

	// Public site — no authentication required
	if parts := splitPath(r.URL.Path); len(parts) >= 3 && parts[0] == "api" && parts[1] == "public" {
		subdomain := parts[2]
		if r.Method == http.MethodGet && len(parts) == 3 {
			site, err := s.service.PublicSiteBySubdomain(r.Context(), subdomain)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, site)
			return
		}
		if r.Method == http.MethodPost && len(parts) == 4 && parts[3] == "rsvp" {
			var body RSVPSubmission
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			rsvp, err := s.service.SubmitRSVP(r.Context(), subdomain, body)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"success": true, "rsvp": rsvp})
			return
		}
	}

	// Session introspection never 401s; it reports the gate's verdict.
	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		cookie, err := r.Cookie(auth.CookieName)
		if err != nil || cookie.Value == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		sess, err := s.service.SessionFromCookie(r.Context(), cookie.Value)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated":   true,
			"userId":          sess.UserID,
			"weddingConfigId": sess.WeddingConfigID,
		})
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signout" {
		s.service.SignOut(r.Context(), session)
		http.SetCookie(w, auth.ExpiredCookie())
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	if r.URL.Path == "/api/config" {
		switch r.Method {
		case http.MethodGet:
			cfg, err := s.service.GetConfig(r.Context(), session)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": cfg})
		case http.MethodPut:
			var body ConfigUpdate
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			cfg, err := s.service.UpdateConfig(r.Context(), session, body)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "config": cfg})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if r.URL.Path == "/api/config/features" {
		switch r.Method {
		case http.MethodGet:
			state, err := s.service.GetFeatures(r.Context(), session)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "features": state})
		case http.MethodPut:
			s.handleSetFeatures(w, r, session)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if r.URL.Path == "/api/faqs" && r.Method == http.MethodGet {
		items, err := s.service.ListFAQs(r.Context(), session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "faqs": nonNilItems(items)})
		return
	}

	if r.URL.Path == "/api/faqs/batch" && r.Method == http.MethodPut {
		s.handleFAQBatch(w, r, session)
		return
	}

	if r.URL.Path == "/api/love-story" && r.Method == http.MethodGet {
		segments, err := s.service.ListLoveStory(r.Context(), session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "loveStory": nonNilItems(segments)})
		return
	}

	if r.URL.Path == "/api/love-story/batch" && r.Method == http.MethodPut {
		s.handleLoveStoryBatch(w, r, session)
		return
	}

	if r.URL.Path == "/api/bank-details" {
		switch r.Method {
		case http.MethodGet:
			details, err := s.service.ListBankDetails(r.Context(), session)
			if err != nil {
				status, code, message, errDetails := mapError(err)
				writeError(w, status, code, message, errDetails)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "bankDetails": nonNilItems(details)})
		case http.MethodPut:
			var body struct {
				BankDetails []store.BankDetail `json:"bankDetails"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			details, err := s.service.ReplaceBankDetails(r.Context(), session, body.BankDetails)
			if err != nil {
				status, code, message, errDetails := mapError(err)
				writeError(w, status, code, message, errDetails)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "bankDetails": nonNilItems(details)})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if r.URL.Path == "/api/gallery" && r.Method == http.MethodGet {
		items, err := s.service.ListGallery(r.Context(), session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "gallery": nonNilItems(items)})
		return
	}

	if parts := splitPath(r.URL.Path); len(parts) == 3 && parts[0] == "api" && parts[1] == "gallery" && r.Method == http.MethodDelete {
		if err := s.service.DeleteGalleryPhoto(r.Context(), session, parts[2]); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}

	if r.URL.Path == "/api/uploads/gallery" && r.Method == http.MethodPost {
		s.handleGalleryUpload(w, r, session)
		return
	}

	if r.URL.Path == "/api/uploads/section" && r.Method == http.MethodPost {
		s.handleSectionUpload(w, r, session)
		return
	}

	if r.URL.Path == "/api/rsvps" && r.Method == http.MethodGet {
		rsvps, err := s.service.ListRSVPs(r.Context(), session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "rsvps": nonNilItems(rsvps)})
		return
	}

	if strings.HasPrefix(r.URL.Path, "/api/dashboard/") {
		s.handleDashboard(w, r, session)
		return
	}

	if r.URL.Path == "/api/publish" && r.Method == http.MethodPost {
		commit, err := s.service.Publish(r.Context(), session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "commit": commit})
		return
	}

	if r.URL.Path == "/api/publish/history" && r.Method == http.MethodGet {
		limit := 20
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			limit = parsed
		}
		history, err := s.service.PublishHistory(r.Context(), session, limit)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "history": history})
		return
	}

	if parts := splitPath(r.URL.Path); len(parts) == 4 && parts[0] == "api" && parts[1] == "publish" && parts[2] == "history" && r.Method == http.MethodGet {
		snap, err := s.service.PublishedSnapshot(r.Context(), session, parts[3])
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "snapshot": snap})
		return
	}

	if r.URL.Path == "/api/search" && r.Method == http.MethodGet {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		filterType := strings.TrimSpace(r.URL.Query().Get("type"))
		limit := 20
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			limit = parsed
		}
		offset := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
				return
			}
			offset = parsed
		}
		writeJSON(w, http.StatusOK, s.service.Search(session, q, filterType, limit, offset))
		return
	}

	if r.URL.Path == "/api/export/invitation" && r.Method == http.MethodPost {
		result, err := s.service.ExportInvitation(r.Context(), session)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		w.Header().Set("Content-Type", result.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// ---- feature toggles ----

func (s *HTTPServer) handleSetFeatures(w http.ResponseWriter, r *http.Request, session Session) {
	var body struct {
		FeatureName *string          `json:"featureName"`
		IsEnabled   *bool            `json:"isEnabled"`
		Features    map[string]*bool `json:"features"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	toggles := make(map[string]bool)
	switch {
	case body.Features != nil:
		for name, enabled := range body.Features {
			if enabled == nil {
				writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("feature %q must be a boolean", name), nil)
				return
			}
			toggles[name] = *enabled
		}
	case body.FeatureName != nil:
		if body.IsEnabled == nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "isEnabled must be a boolean", nil)
			return
		}
		toggles[*body.FeatureName] = *body.IsEnabled
	default:
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "featureName or features is required", nil)
		return
	}

	state, err := s.service.SetFeatures(r.Context(), session, toggles)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "features": state})
}

// ---- batch endpoints ----

// decodeBatch enforces the wire shape: updated and deleted, when
// present, must be JSON arrays.
func decodeBatch[T reconcile.Record](r *http.Request) (reconcile.Batch[T], error) {
	var raw struct {
		Updated json.RawMessage `json:"updated"`
		Deleted json.RawMessage `json:"deleted"`
	}
	if err := decodeBody(r, &raw); err != nil {
		return reconcile.Batch[T]{}, err
	}

	var batch reconcile.Batch[T]
	if present(raw.Updated) {
		if !isJSONArray(raw.Updated) {
			return reconcile.Batch[T]{}, fmt.Errorf("updated must be an array")
		}
		if err := json.Unmarshal(raw.Updated, &batch.Updated); err != nil {
			return reconcile.Batch[T]{}, fmt.Errorf("updated entries are malformed")
		}
	}
	if present(raw.Deleted) {
		if !isJSONArray(raw.Deleted) {
			return reconcile.Batch[T]{}, fmt.Errorf("deleted must be an array")
		}
		if err := json.Unmarshal(raw.Deleted, &batch.Deleted); err != nil {
			return reconcile.Batch[T]{}, fmt.Errorf("deleted entries must be strings")
		}
	}
	return batch, nil
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func (s *HTTPServer) handleFAQBatch(w http.ResponseWriter, r *http.Request, session Session) {
	batch, err := decodeBatch[store.FAQItem](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	results, err := s.service.ApplyFAQBatch(r.Context(), session, batch)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": results})
}

func (s *HTTPServer) handleLoveStoryBatch(w http.ResponseWriter, r *http.Request, session Session) {
	batch, err := decodeBatch[store.LoveStorySegment](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	results, err := s.service.ApplyLoveStoryBatch(r.Context(), session, batch)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "results": results})
}

// ---- uploads ----

const maxUploadMemory = 8 << 20

func (s *HTTPServer) handleGalleryUpload(w http.ResponseWriter, r *http.Request, session Session) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "No file provided", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "No file provided", nil)
		return
	}
	defer file.Close()

	caption := r.FormValue("caption")
	item, err := s.service.UploadGalleryPhoto(r.Context(), session, file, header.Size, header.Header.Get("Content-Type"), caption)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "item": item})
}

func (s *HTTPServer) handleSectionUpload(w http.ResponseWriter, r *http.Request, session Session) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "No file provided", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_UPLOAD", "No file provided", nil)
		return
	}
	defer file.Close()

	section := r.FormValue("section")
	kind := r.FormValue("kind")
	m, err := s.service.UploadSectionMedia(r.Context(), session, section, kind, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "media": m})
}

// ---- drafts and change tracking ----

func (s *HTTPServer) handleDashboard(w http.ResponseWriter, r *http.Request, session Session) {
	parts := splitPath(r.URL.Path)
	// parts[0]=api parts[1]=dashboard

	if len(parts) == 3 && parts[2] == "drafts" && r.Method == http.MethodGet {
		sections := s.service.DraftSections(session)
		drafts := make(map[string]map[string]any, len(sections))
		for _, section := range sections {
			if value, ok := s.service.GetDraft(session, section); ok {
				drafts[section] = value
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "drafts": drafts})
		return
	}

	if len(parts) == 4 && parts[2] == "drafts" {
		section := parts[3]
		switch r.Method {
		case http.MethodGet:
			value, ok := s.service.GetDraft(session, section)
			if !ok {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "No draft for section", nil)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "draft": value})
		case http.MethodPut:
			var body map[string]any
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if body == nil {
				// An empty object is a meaningful draft; a missing body is not.
				body = map[string]any{}
			}
			s.service.SetDraft(session, section, body)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		case http.MethodDelete:
			s.service.ClearDraft(session, section)
			writeJSON(w, http.StatusOK, map[string]any{"success": true})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	if len(parts) == 3 && parts[2] == "changes" && r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"hasAnyChanges": s.service.HasAnyChanges(session),
		})
		return
	}

	if len(parts) == 4 && parts[2] == "changes" {
		section := parts[3]
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{
				"success": true,
				"fields":  s.service.ChangedFields(session, section),
			})
		case http.MethodPost:
			var body struct {
				Field   string `json:"field"`
				Current any    `json:"current"`
				Saved   any    `json:"saved"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if strings.TrimSpace(body.Field) == "" {
				writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "field is required", nil)
				return
			}
			changed := s.service.TrackChange(session, section, body.Field, body.Current, body.Saved)
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "changed": changed})
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		}
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// ---- gate and plumbing ----

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromCookie(r.Context(), cookie.Value)
	if err != nil {
		// Any parse or signature failure reads as an absent session.
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Access-Control-Allow-Credentials", "true")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"success": false,
		"code":    code,
		"error":   message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidSession) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

// nonNilItems keeps list payloads as [] instead of null.
func nonNilItems[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Auth handlers for email/password authentication

func (s *HTTPServer) handleAuthSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"displayName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	resp, err := s.service.SignUp(r.Context(), body.Email, body.Password, body.DisplayName)
	if err != nil {
		if err.Error() == "email already registered" {
			writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "SIGNUP_FAILED", err.Error(), nil)
		return
	}

	response := map[string]any{
		"success": true,
		"userId":  resp.UserID,
		"message": "Please check your email to verify your account",
	}
	// Dev bypass: include verification token in response when email not configured
	if !s.service.SMTPConfigured() {
		response["devVerificationToken"] = resp.VerificationToken
		response["message"] = "Account created. Verify your email to continue."
	}

	writeJSON(w, http.StatusCreated, response)
}

func (s *HTTPServer) handleAuthSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	session, cookieValue, err := s.service.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			writeError(w, domainErr.Status, domainErr.Code, domainErr.Message, nil)
			return
		}
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}

	http.SetCookie(w, auth.NewCookie(cookieValue, s.service.cfg.SessionTTL))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"userId":          session.UserID,
		"weddingConfigId": session.WeddingConfigID,
	})
}

func (s *HTTPServer) handleAuthVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := s.service.Accounts().VerifyEmail(r.Context(), body.Token); err != nil {
		writeError(w, http.StatusBadRequest, "VERIFICATION_FAILED", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email verified successfully",
	})
}

func (s *HTTPServer) handleAuthRequestReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	token, _ := s.service.Accounts().RequestPasswordReset(r.Context(), body.Email)

	if token != "" && s.service.SMTPConfigured() {
		resetURL := fmt.Sprintf("https://%s/reset-password?token=%s", s.service.cfg.PublicDomain, token)
		if err := s.service.mail.SendPasswordResetEmail(body.Email, body.Email, resetURL); err != nil {
			log.Printf("email: send reset to %s: %v", body.Email, err)
		}
	}

	response := map[string]any{
		"success": true,
		"message": "If an account exists, a reset email has been sent",
	}
	// Dev bypass: include reset token in response when email not configured and token was created
	if !s.service.SMTPConfigured() && token != "" {
		response["devResetToken"] = token
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *HTTPServer) handleAuthResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	if err := s.service.Accounts().ResetPassword(r.Context(), authpw.ResetPasswordRequest{
		Token:       body.Token,
		NewPassword: body.NewPassword,
	}); err != nil {
		writeError(w, http.StatusBadRequest, "RESET_FAILED", err.Error(), nil)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset successfully",
	})
}
