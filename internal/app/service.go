// Package app wires the domain services behind the HTTP API: session
// issuing and the gate, the wedding config and its child collections,
// batch reconciliation, uploads, publishing, and search.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"wedloft/api/internal/auth"
	"wedloft/api/internal/authpw"
	"wedloft/api/internal/config"
	"wedloft/api/internal/email"
	"wedloft/api/internal/export"
	"wedloft/api/internal/features"
	"wedloft/api/internal/formstate"
	"wedloft/api/internal/media"
	"wedloft/api/internal/reconcile"
	"wedloft/api/internal/search"
	"wedloft/api/internal/session"
	"wedloft/api/internal/sitegit"
	"wedloft/api/internal/store"
	"wedloft/api/internal/util"
	"wedloft/api/internal/validate"
)

// Session is the authenticated caller's identity for one request.
type Session struct {
	UserID          string
	WeddingConfigID string
	TokenHash       string
}

// dataStore is the persistence surface the service needs; *store.PostgresStore
// implements it, tests use an in-memory fake.
type dataStore interface {
	authpw.UserStore

	Ping(ctx context.Context) error

	CreateWeddingConfig(ctx context.Context, cfg store.WeddingConfig) error
	GetWeddingConfig(ctx context.Context, configID string) (store.WeddingConfig, error)
	GetWeddingConfigByUser(ctx context.Context, userID string) (store.WeddingConfig, error)
	GetWeddingConfigBySubdomain(ctx context.Context, subdomain string) (store.WeddingConfig, error)
	SubdomainTaken(ctx context.Context, subdomain, excludeConfigID string) (bool, error)
	UpdateWeddingConfig(ctx context.Context, cfg store.WeddingConfig) error
	MarkPublished(ctx context.Context, configID string) error

	GetFeatures(ctx context.Context, configID string) (map[string]bool, error)
	SetFeatures(ctx context.Context, configID string, toggles map[string]bool) error

	ListFAQs(ctx context.Context, configID string) ([]store.FAQItem, error)
	ApplyFAQPlan(ctx context.Context, configID string, plan reconcile.Plan[store.FAQItem]) error
	ListLoveStory(ctx context.Context, configID string) ([]store.LoveStorySegment, error)
	ApplyLoveStoryPlan(ctx context.Context, configID string, plan reconcile.Plan[store.LoveStorySegment]) error

	ListBankDetails(ctx context.Context, configID string) ([]store.BankDetail, error)
	ReplaceBankDetails(ctx context.Context, configID string, details []store.BankDetail) error

	ListGallery(ctx context.Context, configID string) ([]store.GalleryItem, error)
	InsertGalleryItem(ctx context.Context, item store.GalleryItem) error
	GetGalleryItem(ctx context.Context, configID, itemID string) (store.GalleryItem, error)
	DeleteGalleryItem(ctx context.Context, configID, itemID string) error
	UpsertSectionMedia(ctx context.Context, m store.SectionMedia) error
	ListSectionMedia(ctx context.Context, configID string) ([]store.SectionMedia, error)

	InsertRSVP(ctx context.Context, rsvp store.RSVP) error
	ListRSVPs(ctx context.Context, configID string) ([]store.RSVP, error)

	SaveSession(ctx context.Context, tokenHash, userID, configID string, expiresAt time.Time) error
	TouchSession(ctx context.Context, tokenHash string) error
	RevokeSession(ctx context.Context, tokenHash string) error
	SessionRevoked(ctx context.Context, tokenHash string) (bool, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	accounts *authpw.Service
	registry *session.RedisStore // optional; Postgres rows are the fallback
	blobs    media.BlobStore
	search   *search.Service // optional
	sites    *sitegit.Service
	exporter *export.Service
	mail     *email.Service // optional
	forms    *formstate.Registry
}

func NewService(
	cfg config.Config,
	dataStore dataStore,
	accounts *authpw.Service,
	registry *session.RedisStore,
	blobs media.BlobStore,
	searchSvc *search.Service,
	sites *sitegit.Service,
	exporter *export.Service,
	mail *email.Service,
) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		accounts: accounts,
		registry: registry,
		blobs:    blobs,
		search:   searchSvc,
		sites:    sites,
		exporter: exporter,
		mail:     mail,
		forms:    formstate.NewRegistry(),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Accounts() *authpw.Service {
	return s.accounts
}

func (s *Service) SMTPConfigured() bool {
	return s.mail != nil && s.mail.IsConfigured()
}

// ---- sessions ----

// SignUp creates the account and its wedding config in one step; every
// user owns exactly one config.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*authpw.SignUpResponse, error) {
	resp, err := s.accounts.SignUp(ctx, authpw.SignUpRequest{
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, err
	}

	cfg := store.WeddingConfig{
		ID:        util.NewID("wed"),
		UserID:    resp.UserID,
		Subdomain: placeholderSubdomain(),
	}
	if err := s.store.CreateWeddingConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("create wedding config: %w", err)
	}

	if s.SMTPConfigured() {
		verifyURL := fmt.Sprintf("https://%s/verify-email?token=%s", s.cfg.PublicDomain, resp.VerificationToken)
		if err := s.mail.SendVerificationEmail(email, displayName, verifyURL); err != nil {
			log.Printf("email: send verification to %s: %v", email, err)
		}
	}

	return resp, nil
}

// SignIn authenticates and issues the signed session cookie value.
func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (Session, string, error) {
	resp, err := s.accounts.SignIn(ctx, authpw.SignInRequest{Email: emailAddr, Password: password})
	if err != nil {
		return Session{}, "", err
	}
	if resp.RequiresVerify {
		return Session{}, "", domainError(http.StatusForbidden, "EMAIL_NOT_VERIFIED", "Please verify your email before signing in", nil)
	}

	cfg, err := s.store.GetWeddingConfigByUser(ctx, resp.User.ID)
	if err != nil {
		// Accounts predating the config-at-signup rule get one here.
		cfg = store.WeddingConfig{
			ID:        util.NewID("wed"),
			UserID:    resp.User.ID,
			Subdomain: placeholderSubdomain(),
		}
		if err := s.store.CreateWeddingConfig(ctx, cfg); err != nil {
			return Session{}, "", fmt.Errorf("create wedding config: %w", err)
		}
	}

	cookieValue, err := auth.IssueCookieValue([]byte(s.cfg.SessionSecret), auth.Session{
		UserID:          resp.User.ID,
		WeddingConfigID: cfg.ID,
		LastActivity:    time.Now().Unix(),
	})
	if err != nil {
		return Session{}, "", fmt.Errorf("issue session cookie: %w", err)
	}

	tokenHash := auth.HashToken(cookieValue)
	expiresAt := time.Now().Add(s.cfg.SessionTTL)
	if err := s.store.SaveSession(ctx, tokenHash, resp.User.ID, cfg.ID, expiresAt); err != nil {
		log.Printf("session: persist %s: %v", tokenHash[:8], err)
	}
	if s.registry != nil {
		entry := session.Entry{UserID: resp.User.ID, WeddingConfigID: cfg.ID}
		if err := s.registry.Save(ctx, tokenHash, entry, s.cfg.SessionTTL); err != nil {
			log.Printf("session: redis save %s: %v", tokenHash[:8], err)
		}
	}

	return Session{UserID: resp.User.ID, WeddingConfigID: cfg.ID, TokenHash: tokenHash}, cookieValue, nil
}

// SessionFromCookie verifies the cookie value and returns the caller's
// identity. Signature or shape failures surface as auth.ErrInvalidSession;
// registry lookups are advisory except for explicit revocation.
func (s *Service) SessionFromCookie(ctx context.Context, cookieValue string) (Session, error) {
	parsed, err := auth.ParseCookieValue([]byte(s.cfg.SessionSecret), cookieValue)
	if err != nil {
		return Session{}, err
	}

	tokenHash := auth.HashToken(cookieValue)
	if revoked, err := s.store.SessionRevoked(ctx, tokenHash); err == nil && revoked {
		return Session{}, auth.ErrInvalidSession
	}

	if err := s.store.TouchSession(ctx, tokenHash); err != nil {
		log.Printf("session: touch %s: %v", tokenHash[:8], err)
	}
	if s.registry != nil {
		if err := s.registry.Touch(ctx, tokenHash); err != nil {
			log.Printf("session: redis touch %s: %v", tokenHash[:8], err)
		}
	}

	return Session{
		UserID:          parsed.UserID,
		WeddingConfigID: parsed.WeddingConfigID,
		TokenHash:       tokenHash,
	}, nil
}

// SignOut revokes the registry entries and drops unsaved form state.
func (s *Service) SignOut(ctx context.Context, sess Session) {
	if err := s.store.RevokeSession(ctx, sess.TokenHash); err != nil {
		log.Printf("session: revoke %s: %v", sess.TokenHash[:8], err)
	}
	if s.registry != nil {
		if err := s.registry.Revoke(ctx, sess.TokenHash); err != nil {
			log.Printf("session: redis revoke %s: %v", sess.TokenHash[:8], err)
		}
	}
	s.forms.Drop(sess.WeddingConfigID)
}

// ---- wedding config ----

func (s *Service) GetConfig(ctx context.Context, sess Session) (store.WeddingConfig, error) {
	return s.store.GetWeddingConfig(ctx, sess.WeddingConfigID)
}

// ConfigUpdate is a full-row update of the editable config fields.
type ConfigUpdate struct {
	Subdomain      string `json:"subdomain"`
	PartnerOneName string `json:"partnerOneName"`
	PartnerTwoName string `json:"partnerTwoName"`
	WeddingDate    string `json:"weddingDate"`
	VenueName      string `json:"venueName"`
	VenueAddress   string `json:"venueAddress"`
	WelcomeMessage string `json:"welcomeMessage"`
}

func (s *Service) UpdateConfig(ctx context.Context, sess Session, update ConfigUpdate) (store.WeddingConfig, error) {
	cfg, err := s.store.GetWeddingConfig(ctx, sess.WeddingConfigID)
	if err != nil {
		return store.WeddingConfig{}, err
	}

	if update.Subdomain != "" && update.Subdomain != cfg.Subdomain {
		if !validate.Subdomain(update.Subdomain) {
			return store.WeddingConfig{}, domainError(http.StatusBadRequest, "INVALID_SUBDOMAIN", "Subdomain must be 3-40 lowercase letters, digits, or hyphens", nil)
		}
		taken, err := s.store.SubdomainTaken(ctx, update.Subdomain, cfg.ID)
		if err != nil {
			return store.WeddingConfig{}, err
		}
		if taken {
			return store.WeddingConfig{}, domainError(http.StatusConflict, "SUBDOMAIN_TAKEN", "Subdomain is already in use", nil)
		}
		cfg.Subdomain = update.Subdomain
	}
	if update.WeddingDate != "" && !validate.Date(update.WeddingDate) {
		return store.WeddingConfig{}, domainError(http.StatusBadRequest, "INVALID_DATE", "Wedding date must be YYYY-MM-DD", nil)
	}

	cfg.PartnerOneName = update.PartnerOneName
	cfg.PartnerTwoName = update.PartnerTwoName
	cfg.WeddingDate = update.WeddingDate
	cfg.VenueName = update.VenueName
	cfg.VenueAddress = update.VenueAddress
	cfg.WelcomeMessage = update.WelcomeMessage

	if err := s.store.UpdateWeddingConfig(ctx, cfg); err != nil {
		return store.WeddingConfig{}, err
	}
	return cfg, nil
}

// ---- feature toggles ----

func (s *Service) GetFeatures(ctx context.Context, sess Session) (map[string]bool, error) {
	stored, err := s.store.GetFeatures(ctx, sess.WeddingConfigID)
	if err != nil {
		return nil, err
	}
	return features.Normalize(stored), nil
}

// SetFeatures applies a batch of toggles atomically. A single unknown
// name rejects the whole request.
func (s *Service) SetFeatures(ctx context.Context, sess Session, toggles map[string]bool) (map[string]bool, error) {
	if unknown := features.ValidateBatch(toggles); unknown != "" {
		return nil, domainError(http.StatusBadRequest, "UNKNOWN_FEATURE", fmt.Sprintf("Unknown feature %q", unknown), nil)
	}
	if len(toggles) == 0 {
		return s.GetFeatures(ctx, sess)
	}

	stored, err := s.store.GetFeatures(ctx, sess.WeddingConfigID)
	if err != nil {
		return nil, err
	}
	state := features.Normalize(stored)
	for name, enabled := range toggles {
		state[name] = enabled
	}
	if err := s.store.SetFeatures(ctx, sess.WeddingConfigID, state); err != nil {
		return nil, err
	}
	return state, nil
}

// ---- FAQ and love story batches ----

func (s *Service) ListFAQs(ctx context.Context, sess Session) ([]store.FAQItem, error) {
	return s.store.ListFAQs(ctx, sess.WeddingConfigID)
}

// ApplyFAQBatch reconciles the submitted batch against the stored
// collection and applies the plan in one transaction.
func (s *Service) ApplyFAQBatch(ctx context.Context, sess Session, batch reconcile.Batch[store.FAQItem]) ([]reconcile.ItemResult, error) {
	existing, err := s.store.ListFAQs(ctx, sess.WeddingConfigID)
	if err != nil {
		return nil, err
	}

	plan, err := reconcile.BuildPlan(existing, batch, func(item store.FAQItem) store.FAQItem {
		item.ID = util.NewID("faq")
		return item
	})
	if err != nil {
		return nil, batchError(err)
	}
	if plan.Empty() {
		return []reconcile.ItemResult{}, nil
	}

	if err := s.store.ApplyFAQPlan(ctx, sess.WeddingConfigID, plan); err != nil {
		return nil, err
	}

	s.forms.For(sess.WeddingConfigID).Drafts.Clear("faqs")
	s.forms.For(sess.WeddingConfigID).Changes.ClearSection("faqs")

	if s.search != nil {
		for _, item := range append(plan.Creates, plan.Updates...) {
			s.search.IndexFAQ(search.FAQRecord{
				ID:              item.ID,
				Question:        item.Question,
				Answer:          item.Answer,
				WeddingConfigID: sess.WeddingConfigID,
			})
		}
		for _, id := range plan.Deletes {
			s.search.DeleteFAQ(id)
		}
	}

	return plan.Results, nil
}

func (s *Service) ListLoveStory(ctx context.Context, sess Session) ([]store.LoveStorySegment, error) {
	return s.store.ListLoveStory(ctx, sess.WeddingConfigID)
}

func (s *Service) ApplyLoveStoryBatch(ctx context.Context, sess Session, batch reconcile.Batch[store.LoveStorySegment]) ([]reconcile.ItemResult, error) {
	for _, segment := range batch.Updated {
		if segment.OccurredOn != "" && !validate.Date(segment.OccurredOn) {
			return nil, domainError(http.StatusBadRequest, "INVALID_DATE", "occurredOn must be YYYY-MM-DD", nil)
		}
		if segment.ImageURL != "" && !validate.URL(segment.ImageURL) {
			return nil, domainError(http.StatusBadRequest, "INVALID_URL", "imageUrl must be an absolute http(s) URL", nil)
		}
	}

	existing, err := s.store.ListLoveStory(ctx, sess.WeddingConfigID)
	if err != nil {
		return nil, err
	}

	plan, err := reconcile.BuildPlan(existing, batch, func(segment store.LoveStorySegment) store.LoveStorySegment {
		segment.ID = util.NewID("story")
		return segment
	})
	if err != nil {
		return nil, batchError(err)
	}
	if plan.Empty() {
		return []reconcile.ItemResult{}, nil
	}

	if err := s.store.ApplyLoveStoryPlan(ctx, sess.WeddingConfigID, plan); err != nil {
		return nil, err
	}

	s.forms.For(sess.WeddingConfigID).Drafts.Clear("loveStory")
	s.forms.For(sess.WeddingConfigID).Changes.ClearSection("loveStory")

	if s.search != nil {
		for _, segment := range append(plan.Creates, plan.Updates...) {
			s.search.IndexStory(search.StoryRecord{
				ID:              segment.ID,
				Title:           segment.Title,
				Body:            segment.Body,
				OccurredOn:      segment.OccurredOn,
				WeddingConfigID: sess.WeddingConfigID,
			})
		}
		for _, id := range plan.Deletes {
			s.search.DeleteStory(id)
		}
	}

	return plan.Results, nil
}

// batchError maps reconciler failures onto the API error taxonomy.
func batchError(err error) error {
	var ownership *reconcile.OwnershipError
	if errors.As(err, &ownership) {
		return domainError(http.StatusForbidden, "NOT_OWNED", ownership.Error(), nil)
	}
	if errors.Is(err, reconcile.ErrContradictoryBatch) {
		return domainError(http.StatusBadRequest, "CONTRADICTORY_BATCH", err.Error(), nil)
	}
	return err
}

// ---- bank details ----

func (s *Service) ListBankDetails(ctx context.Context, sess Session) ([]store.BankDetail, error) {
	return s.store.ListBankDetails(ctx, sess.WeddingConfigID)
}

// ReplaceBankDetails swaps the full list; bank details are few enough
// that the batch reconciler would be overkill.
func (s *Service) ReplaceBankDetails(ctx context.Context, sess Session, details []store.BankDetail) ([]store.BankDetail, error) {
	for i := range details {
		if strings.TrimSpace(details[i].BankName) == "" || strings.TrimSpace(details[i].AccountNumber) == "" {
			return nil, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "bankName and accountNumber are required", nil)
		}
		if details[i].ID == "" {
			details[i].ID = util.NewID("bank")
		}
		details[i].SortOrder = i
	}
	if err := s.store.ReplaceBankDetails(ctx, sess.WeddingConfigID, details); err != nil {
		return nil, err
	}
	s.forms.For(sess.WeddingConfigID).Drafts.Clear("bankDetails")
	s.forms.For(sess.WeddingConfigID).Changes.ClearSection("bankDetails")
	return s.store.ListBankDetails(ctx, sess.WeddingConfigID)
}

// ---- uploads ----

func (s *Service) ListGallery(ctx context.Context, sess Session) ([]store.GalleryItem, error) {
	return s.store.ListGallery(ctx, sess.WeddingConfigID)
}

// UploadGalleryPhoto validates, stores the blob, and persists the
// pointer row.
func (s *Service) UploadGalleryPhoto(ctx context.Context, sess Session, r io.Reader, size int64, contentType, caption string) (store.GalleryItem, error) {
	if err := media.Validate(media.KindGalleryPhoto, contentType, size); err != nil {
		return store.GalleryItem{}, uploadError(err)
	}

	item := store.GalleryItem{
		ID:              util.NewID("photo"),
		WeddingConfigID: sess.WeddingConfigID,
		Caption:         caption,
	}
	item.ObjectKey = fmt.Sprintf("%s/gallery/%s", sess.WeddingConfigID, item.ID)

	url, err := s.blobs.Put(ctx, item.ObjectKey, r, size, contentType)
	if err != nil {
		return store.GalleryItem{}, fmt.Errorf("store gallery blob: %w", err)
	}
	item.URL = url

	if err := s.store.InsertGalleryItem(ctx, item); err != nil {
		return store.GalleryItem{}, err
	}
	return item, nil
}

// DeleteGalleryPhoto removes the pointer row; the blob delete is
// best-effort and never blocks the row delete.
func (s *Service) DeleteGalleryPhoto(ctx context.Context, sess Session, itemID string) error {
	item, err := s.store.GetGalleryItem(ctx, sess.WeddingConfigID, itemID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteGalleryItem(ctx, sess.WeddingConfigID, itemID); err != nil {
		return err
	}
	if item.ObjectKey != "" {
		if err := s.blobs.Remove(ctx, item.ObjectKey); err != nil {
			log.Printf("media: remove blob %s: %v", item.ObjectKey, err)
		}
	}
	return nil
}

// UploadSectionMedia replaces the single media slot of a named section.
func (s *Service) UploadSectionMedia(ctx context.Context, sess Session, section, kind string, r io.Reader, size int64, contentType string) (store.SectionMedia, error) {
	if strings.TrimSpace(section) == "" {
		return store.SectionMedia{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "section is required", nil)
	}

	mediaKind := media.KindSectionImage
	if kind == "video" {
		mediaKind = media.KindSectionVideo
	} else {
		kind = "image"
	}
	if err := media.Validate(mediaKind, contentType, size); err != nil {
		return store.SectionMedia{}, uploadError(err)
	}

	m := store.SectionMedia{
		ID:              util.NewID("media"),
		WeddingConfigID: sess.WeddingConfigID,
		Section:         section,
		Kind:            kind,
	}
	m.ObjectKey = fmt.Sprintf("%s/sections/%s/%s", sess.WeddingConfigID, section, m.ID)

	url, err := s.blobs.Put(ctx, m.ObjectKey, r, size, contentType)
	if err != nil {
		return store.SectionMedia{}, fmt.Errorf("store section blob: %w", err)
	}
	m.URL = url

	if err := s.store.UpsertSectionMedia(ctx, m); err != nil {
		return store.SectionMedia{}, err
	}
	return m, nil
}

func uploadError(err error) error {
	var verr *media.ValidationError
	if errors.As(err, &verr) {
		code := "INVALID_UPLOAD"
		if verr.Status == http.StatusRequestEntityTooLarge {
			code = "FILE_TOO_LARGE"
		}
		return domainError(verr.Status, code, verr.Message, nil)
	}
	return err
}

// ---- RSVPs and the public site ----

func (s *Service) ListRSVPs(ctx context.Context, sess Session) ([]store.RSVP, error) {
	return s.store.ListRSVPs(ctx, sess.WeddingConfigID)
}

// PublicSite is the payload guests see. Sections behind a disabled
// feature are omitted entirely.
type PublicSite struct {
	Config      store.WeddingConfig      `json:"config"`
	Features    map[string]bool          `json:"features"`
	FAQs        []store.FAQItem          `json:"faqs,omitempty"`
	LoveStory   []store.LoveStorySegment `json:"loveStory,omitempty"`
	Gallery     []store.GalleryItem      `json:"gallery,omitempty"`
	Sections    []store.SectionMedia     `json:"sections"`
	BankDetails []store.BankDetail       `json:"bankDetails,omitempty"`
}

func (s *Service) PublicSiteBySubdomain(ctx context.Context, subdomain string) (PublicSite, error) {
	cfg, err := s.store.GetWeddingConfigBySubdomain(ctx, subdomain)
	if err != nil {
		return PublicSite{}, err
	}
	if !cfg.Published {
		return PublicSite{}, domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
	return s.assembleSite(ctx, cfg)
}

func (s *Service) assembleSite(ctx context.Context, cfg store.WeddingConfig) (PublicSite, error) {
	stored, err := s.store.GetFeatures(ctx, cfg.ID)
	if err != nil {
		return PublicSite{}, err
	}
	state := features.Normalize(stored)

	site := PublicSite{Config: cfg, Features: state}

	sections, err := s.store.ListSectionMedia(ctx, cfg.ID)
	if err != nil {
		return PublicSite{}, err
	}
	site.Sections = sections

	if state[features.FAQs] {
		if site.FAQs, err = s.store.ListFAQs(ctx, cfg.ID); err != nil {
			return PublicSite{}, err
		}
	}
	if state[features.LoveStory] {
		if site.LoveStory, err = s.store.ListLoveStory(ctx, cfg.ID); err != nil {
			return PublicSite{}, err
		}
	}
	if state[features.Gallery] {
		if site.Gallery, err = s.store.ListGallery(ctx, cfg.ID); err != nil {
			return PublicSite{}, err
		}
	}
	if state[features.BankDetails] {
		if site.BankDetails, err = s.store.ListBankDetails(ctx, cfg.ID); err != nil {
			return PublicSite{}, err
		}
	}

	return site, nil
}

// RSVPSubmission is a guest's response from the public site.
type RSVPSubmission struct {
	GuestName  string `json:"guestName"`
	Email      string `json:"email"`
	Attending  *bool  `json:"attending"`
	GuestCount int    `json:"guestCount"`
	Message    string `json:"message"`
}

// SubmitRSVP persists a guest response against a published site and
// notifies the couple best-effort.
func (s *Service) SubmitRSVP(ctx context.Context, subdomain string, sub RSVPSubmission) (store.RSVP, error) {
	cfg, err := s.store.GetWeddingConfigBySubdomain(ctx, subdomain)
	if err != nil {
		return store.RSVP{}, err
	}
	if !cfg.Published {
		return store.RSVP{}, domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}

	stored, err := s.store.GetFeatures(ctx, cfg.ID)
	if err != nil {
		return store.RSVP{}, err
	}
	if !features.Normalize(stored)[features.RSVP] {
		return store.RSVP{}, domainError(http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}

	if strings.TrimSpace(sub.GuestName) == "" {
		return store.RSVP{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "guestName is required", nil)
	}
	if sub.Attending == nil {
		return store.RSVP{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "attending is required", nil)
	}
	if sub.GuestCount < 0 || sub.GuestCount > 20 {
		return store.RSVP{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "guestCount must be between 0 and 20", nil)
	}
	if sub.Email != "" && !validate.Email(sub.Email) {
		return store.RSVP{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "invalid email address", nil)
	}

	rsvp := store.RSVP{
		ID:              util.NewID("rsvp"),
		WeddingConfigID: cfg.ID,
		GuestName:       sub.GuestName,
		Email:           sub.Email,
		Attending:       *sub.Attending,
		GuestCount:      sub.GuestCount,
		Message:         sub.Message,
	}
	if err := s.store.InsertRSVP(ctx, rsvp); err != nil {
		return store.RSVP{}, err
	}

	if s.search != nil {
		s.search.IndexRSVP(search.RSVPRecord{
			ID:              rsvp.ID,
			GuestName:       rsvp.GuestName,
			Message:         rsvp.Message,
			Attending:       rsvp.Attending,
			WeddingConfigID: cfg.ID,
		})
	}

	if s.SMTPConfigured() {
		owner, err := s.store.GetUserByID(ctx, cfg.UserID)
		if err == nil {
			couple := coupleName(cfg)
			if err := s.mail.SendRSVPNotification(owner.Email, couple, rsvp.GuestName, rsvp.Attending, rsvp.GuestCount, rsvp.Message); err != nil {
				log.Printf("email: rsvp notification for %s: %v", cfg.ID, err)
			}
		}
	}

	return rsvp, nil
}

// ---- publishing ----

// Publish snapshots the full site payload into the per-wedding repo
// and marks the config published.
func (s *Service) Publish(ctx context.Context, sess Session) (sitegit.CommitInfo, error) {
	cfg, err := s.store.GetWeddingConfig(ctx, sess.WeddingConfigID)
	if err != nil {
		return sitegit.CommitInfo{}, err
	}

	site, err := s.assembleSite(ctx, cfg)
	if err != nil {
		return sitegit.CommitInfo{}, err
	}

	snap := sitegit.Snapshot{
		Config:      cfg,
		Features:    site.Features,
		Sections:    site.Sections,
		PublishedAt: time.Now(),
	}
	// The snapshot always carries every section; the feature state in
	// the snapshot says what was visible.
	if snap.FAQs, err = s.store.ListFAQs(ctx, cfg.ID); err != nil {
		return sitegit.CommitInfo{}, err
	}
	if snap.LoveStory, err = s.store.ListLoveStory(ctx, cfg.ID); err != nil {
		return sitegit.CommitInfo{}, err
	}
	if snap.Gallery, err = s.store.ListGallery(ctx, cfg.ID); err != nil {
		return sitegit.CommitInfo{}, err
	}
	if snap.BankDetails, err = s.store.ListBankDetails(ctx, cfg.ID); err != nil {
		return sitegit.CommitInfo{}, err
	}

	commit, err := s.sites.CommitSnapshot(cfg.ID, snap, coupleName(cfg), "Publish site")
	if err != nil {
		return sitegit.CommitInfo{}, fmt.Errorf("commit snapshot: %w", err)
	}

	if err := s.store.MarkPublished(ctx, cfg.ID); err != nil {
		return sitegit.CommitInfo{}, err
	}
	return commit, nil
}

func (s *Service) PublishHistory(ctx context.Context, sess Session, limit int) ([]sitegit.CommitInfo, error) {
	return s.sites.History(sess.WeddingConfigID, limit)
}

func (s *Service) PublishedSnapshot(ctx context.Context, sess Session, hash string) (sitegit.Snapshot, error) {
	return s.sites.SnapshotByHash(sess.WeddingConfigID, hash)
}

// ---- search ----

func (s *Service) Search(sess Session, text, filterType string, limit, offset int) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}
	}
	return s.search.Search(search.Query{
		Text:            text,
		WeddingConfigID: sess.WeddingConfigID,
		FilterType:      search.ResultType(filterType),
		Limit:           limit,
		Offset:          offset,
	})
}

// ---- export ----

func (s *Service) ExportInvitation(ctx context.Context, sess Session) (*export.Result, error) {
	cfg, err := s.store.GetWeddingConfig(ctx, sess.WeddingConfigID)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportInvitation(cfg)
}

// ---- drafts and change tracking ----

func (s *Service) DraftSections(sess Session) []string {
	return s.forms.For(sess.WeddingConfigID).Drafts.Sections()
}

func (s *Service) GetDraft(sess Session, section string) (map[string]any, bool) {
	return s.forms.For(sess.WeddingConfigID).Drafts.Get(section)
}

func (s *Service) SetDraft(sess Session, section string, value map[string]any) {
	s.forms.For(sess.WeddingConfigID).Drafts.Set(section, value)
}

func (s *Service) ClearDraft(sess Session, section string) {
	s.forms.For(sess.WeddingConfigID).Drafts.Clear(section)
}

func (s *Service) ChangedFields(sess Session, section string) []string {
	return s.forms.For(sess.WeddingConfigID).Changes.ChangedFields(section)
}

func (s *Service) HasAnyChanges(sess Session) bool {
	return s.forms.For(sess.WeddingConfigID).Changes.HasAnyChanges()
}

// TrackChange records one field comparison and reports whether the
// field is currently dirty.
func (s *Service) TrackChange(sess Session, section, field string, current, saved any) bool {
	return s.forms.For(sess.WeddingConfigID).Changes.SetChanged(section, field, current, saved)
}

// ---- helpers ----

func coupleName(cfg store.WeddingConfig) string {
	switch {
	case cfg.PartnerOneName != "" && cfg.PartnerTwoName != "":
		return cfg.PartnerOneName + " & " + cfg.PartnerTwoName
	case cfg.PartnerOneName != "":
		return cfg.PartnerOneName
	case cfg.PartnerTwoName != "":
		return cfg.PartnerTwoName
	default:
		return "Wedloft"
	}
}

func placeholderSubdomain() string {
	return "site-" + strings.ToLower(util.NewID(""))[:12]
}
