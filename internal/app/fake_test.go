package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"wedloft/api/internal/authpw"
	"wedloft/api/internal/config"
	"wedloft/api/internal/email"
	"wedloft/api/internal/export"
	"wedloft/api/internal/reconcile"
	"wedloft/api/internal/sitegit"
	"wedloft/api/internal/store"
)

// fakeStore is an in-memory dataStore for handler and service tests.
type fakeStore struct {
	mu sync.Mutex

	users         map[string]store.User
	emailIndex    map[string]string
	verifications map[string]string // token -> userID
	resets        map[string]struct {
		userID string
		used   bool
	}

	configs     map[string]store.WeddingConfig
	byUser      map[string]string // userID -> configID
	bySubdomain map[string]string

	features map[string]map[string]bool
	faqs     map[string][]store.FAQItem
	story    map[string][]store.LoveStorySegment
	banks    map[string][]store.BankDetail
	gallery  map[string][]store.GalleryItem
	sections map[string][]store.SectionMedia
	rsvps    map[string][]store.RSVP

	revoked map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[string]store.User),
		emailIndex:    make(map[string]string),
		verifications: make(map[string]string),
		resets: make(map[string]struct {
			userID string
			used   bool
		}),
		configs:     make(map[string]store.WeddingConfig),
		byUser:      make(map[string]string),
		bySubdomain: make(map[string]string),
		features:    make(map[string]map[string]bool),
		faqs:        make(map[string][]store.FAQItem),
		story:       make(map[string][]store.LoveStorySegment),
		banks:       make(map[string][]store.BankDetail),
		gallery:     make(map[string][]store.GalleryItem),
		sections:    make(map[string][]store.SectionMedia),
		rsvps:       make(map[string][]store.RSVP),
		revoked:     make(map[string]bool),
	}
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.emailIndex[email]; ok {
		return f.users[id], nil
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) CreateUser(ctx context.Context, user store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	f.emailIndex[user.Email] = user.ID
	return nil
}

func (f *fakeStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifications[token] = userID
	return nil
}

func (f *fakeStore) VerifyUserEmail(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	userID, ok := f.verifications[token]
	if !ok {
		return sql.ErrNoRows
	}
	user := f.users[userID]
	user.IsEmailVerified = true
	f.users[userID] = user
	return nil
}

func (f *fakeStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	user.PasswordHash = passwordHash
	f.users[userID] = user
	return nil
}

func (f *fakeStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[token] = struct {
		userID string
		used   bool
	}{userID: userID}
	return nil
}

func (f *fakeStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reset, ok := f.resets[token]
	if !ok || reset.used {
		return "", sql.ErrNoRows
	}
	return reset.userID, nil
}

func (f *fakeStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reset, ok := f.resets[token]; ok {
		reset.used = true
		f.resets[token] = reset
	}
	return nil
}

func (f *fakeStore) CreateWeddingConfig(ctx context.Context, cfg store.WeddingConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs[cfg.ID] = cfg
	f.byUser[cfg.UserID] = cfg.ID
	f.bySubdomain[cfg.Subdomain] = cfg.ID
	return nil
}

func (f *fakeStore) GetWeddingConfig(ctx context.Context, configID string) (store.WeddingConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfg, ok := f.configs[configID]; ok {
		return cfg, nil
	}
	return store.WeddingConfig{}, sql.ErrNoRows
}

func (f *fakeStore) GetWeddingConfigByUser(ctx context.Context, userID string) (store.WeddingConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.byUser[userID]; ok {
		return f.configs[id], nil
	}
	return store.WeddingConfig{}, sql.ErrNoRows
}

func (f *fakeStore) GetWeddingConfigBySubdomain(ctx context.Context, subdomain string) (store.WeddingConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.bySubdomain[subdomain]; ok {
		return f.configs[id], nil
	}
	return store.WeddingConfig{}, sql.ErrNoRows
}

func (f *fakeStore) SubdomainTaken(ctx context.Context, subdomain, excludeConfigID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.bySubdomain[subdomain]
	return ok && id != excludeConfigID, nil
}

func (f *fakeStore) UpdateWeddingConfig(ctx context.Context, cfg store.WeddingConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.configs[cfg.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if prev.Subdomain != cfg.Subdomain {
		delete(f.bySubdomain, prev.Subdomain)
		f.bySubdomain[cfg.Subdomain] = cfg.ID
	}
	cfg.Published = prev.Published
	cfg.PublishedAt = prev.PublishedAt
	f.configs[cfg.ID] = cfg
	return nil
}

func (f *fakeStore) MarkPublished(ctx context.Context, configID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[configID]
	if !ok {
		return sql.ErrNoRows
	}
	now := time.Now()
	cfg.Published = true
	cfg.PublishedAt = &now
	f.configs[configID] = cfg
	return nil
}

func (f *fakeStore) GetFeatures(ctx context.Context, configID string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := make(map[string]bool, len(f.features[configID]))
	for name, enabled := range f.features[configID] {
		stored[name] = enabled
	}
	return stored, nil
}

func (f *fakeStore) SetFeatures(ctx context.Context, configID string, toggles map[string]bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := make(map[string]bool, len(toggles))
	for name, enabled := range toggles {
		state[name] = enabled
	}
	f.features[configID] = state
	return nil
}

func (f *fakeStore) ListFAQs(ctx context.Context, configID string) ([]store.FAQItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := append([]store.FAQItem(nil), f.faqs[configID]...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortOrder < items[j].SortOrder })
	return items, nil
}

func (f *fakeStore) ApplyFAQPlan(ctx context.Context, configID string, plan reconcile.Plan[store.FAQItem]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := make(map[string]store.FAQItem)
	for _, item := range f.faqs[configID] {
		byID[item.ID] = item
	}
	for _, id := range plan.Deletes {
		delete(byID, id)
	}
	for _, item := range append(plan.Creates, plan.Updates...) {
		item.WeddingConfigID = configID
		byID[item.ID] = item
	}
	items := make([]store.FAQItem, 0, len(byID))
	for _, item := range byID {
		items = append(items, item)
	}
	f.faqs[configID] = items
	return nil
}

func (f *fakeStore) ListLoveStory(ctx context.Context, configID string) ([]store.LoveStorySegment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	segments := append([]store.LoveStorySegment(nil), f.story[configID]...)
	sort.SliceStable(segments, func(i, j int) bool { return segments[i].SortOrder < segments[j].SortOrder })
	return segments, nil
}

func (f *fakeStore) ApplyLoveStoryPlan(ctx context.Context, configID string, plan reconcile.Plan[store.LoveStorySegment]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	byID := make(map[string]store.LoveStorySegment)
	for _, segment := range f.story[configID] {
		byID[segment.ID] = segment
	}
	for _, id := range plan.Deletes {
		delete(byID, id)
	}
	for _, segment := range append(plan.Creates, plan.Updates...) {
		segment.WeddingConfigID = configID
		byID[segment.ID] = segment
	}
	segments := make([]store.LoveStorySegment, 0, len(byID))
	for _, segment := range byID {
		segments = append(segments, segment)
	}
	f.story[configID] = segments
	return nil
}

func (f *fakeStore) ListBankDetails(ctx context.Context, configID string) ([]store.BankDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	details := append([]store.BankDetail(nil), f.banks[configID]...)
	sort.SliceStable(details, func(i, j int) bool { return details[i].SortOrder < details[j].SortOrder })
	return details, nil
}

func (f *fakeStore) ReplaceBankDetails(ctx context.Context, configID string, details []store.BankDetail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]store.BankDetail, len(details))
	copy(copied, details)
	for i := range copied {
		copied[i].WeddingConfigID = configID
	}
	f.banks[configID] = copied
	return nil
}

func (f *fakeStore) ListGallery(ctx context.Context, configID string) ([]store.GalleryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.GalleryItem(nil), f.gallery[configID]...), nil
}

func (f *fakeStore) InsertGalleryItem(ctx context.Context, item store.GalleryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gallery[item.WeddingConfigID] = append(f.gallery[item.WeddingConfigID], item)
	return nil
}

func (f *fakeStore) GetGalleryItem(ctx context.Context, configID, itemID string) (store.GalleryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.gallery[configID] {
		if item.ID == itemID {
			return item, nil
		}
	}
	return store.GalleryItem{}, sql.ErrNoRows
}

func (f *fakeStore) DeleteGalleryItem(ctx context.Context, configID, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.gallery[configID]
	for i, item := range items {
		if item.ID == itemID {
			f.gallery[configID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStore) UpsertSectionMedia(ctx context.Context, m store.SectionMedia) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.sections[m.WeddingConfigID]
	for i, existing := range items {
		if existing.Section == m.Section {
			items[i] = m
			return nil
		}
	}
	f.sections[m.WeddingConfigID] = append(items, m)
	return nil
}

func (f *fakeStore) ListSectionMedia(ctx context.Context, configID string) ([]store.SectionMedia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.SectionMedia(nil), f.sections[configID]...), nil
}

func (f *fakeStore) InsertRSVP(ctx context.Context, rsvp store.RSVP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rsvps[rsvp.WeddingConfigID] = append(f.rsvps[rsvp.WeddingConfigID], rsvp)
	return nil
}

func (f *fakeStore) ListRSVPs(ctx context.Context, configID string) ([]store.RSVP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.RSVP(nil), f.rsvps[configID]...), nil
}

func (f *fakeStore) SaveSession(ctx context.Context, tokenHash, userID, configID string, expiresAt time.Time) error {
	return nil
}

func (f *fakeStore) TouchSession(ctx context.Context, tokenHash string) error { return nil }

func (f *fakeStore) RevokeSession(ctx context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[tokenHash] = true
	return nil
}

func (f *fakeStore) SessionRevoked(ctx context.Context, tokenHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[tokenHash], nil
}

// memBlobStore collects uploads in memory.
type memBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	removed []string
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (m *memBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	return "https://cdn.test/" + key, nil
}

func (m *memBlobStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	m.removed = append(m.removed, key)
	return nil
}

// testServer bundles the wired service with its HTTP handler.
type testServer struct {
	service *Service
	handler http.Handler
	store   *fakeStore
	blobs   *memBlobStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Config{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
		PublicDomain:  "wedloft.test",
		CORSOrigin:    "*",
	}

	fake := newFakeStore()
	blobs := newMemBlobStore()
	service := NewService(
		cfg,
		fake,
		authpw.NewService(fake),
		nil,
		blobs,
		nil,
		sitegit.New(t.TempDir()),
		export.NewService(cfg.PublicDomain),
		email.NewService(email.Config{}),
	)

	return &testServer{
		service: service,
		handler: NewHTTPServer(service, cfg.CORSOrigin).Handler(),
		store:   fake,
		blobs:   blobs,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return payload
}

// signUpAndSignIn runs the full account flow over HTTP and returns the
// session cookie.
func (ts *testServer) signUpAndSignIn(t *testing.T, emailAddr string) *http.Cookie {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"email":       emailAddr,
		"password":    "password123",
		"displayName": "Test Couple",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeResponse(t, rec)["devVerificationToken"].(string)
	if token == "" {
		t.Fatal("expected devVerificationToken in signup response")
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/verify-email", map[string]any{"token": token}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/signin", map[string]any{
		"email":    emailAddr,
		"password": "password123",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("signin status = %d, body %s", rec.Code, rec.Body.String())
	}

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session" && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("signin response did not set a session cookie")
	return nil
}

// multipartUpload builds a multipart body with a file field and extras.
func multipartUpload(t *testing.T, contentType string, size int, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="upload.bin"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{0xAB}, size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	for key, value := range extra {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func assertErrorBody(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) map[string]any {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, wantStatus, rec.Body.String())
	}
	payload := decodeResponse(t, rec)
	if success, ok := payload["success"].(bool); !ok || success {
		t.Errorf("success = %v, want false", payload["success"])
	}
	if payload["code"] != wantCode {
		t.Errorf("code = %v, want %s", payload["code"], wantCode)
	}
	if _, ok := payload["error"].(string); !ok {
		t.Errorf("error message missing in %v", payload)
	}
	return payload
}
