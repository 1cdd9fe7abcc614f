package store

import "time"

type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	DisplayName           string     `json:"displayName"`
	PasswordHash          string     `json:"-"`
	IsEmailVerified       bool       `json:"isEmailVerified"`
	VerificationToken     string     `json:"-"`
	VerificationExpiresAt *time.Time `json:"-"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// WeddingConfig is the tenant root: every child record carries its ID
// and every session is scoped to exactly one.
type WeddingConfig struct {
	ID             string     `json:"id"`
	UserID         string     `json:"-"`
	Subdomain      string     `json:"subdomain"`
	PartnerOneName string     `json:"partnerOneName"`
	PartnerTwoName string     `json:"partnerTwoName"`
	WeddingDate    string     `json:"weddingDate"`
	VenueName      string     `json:"venueName"`
	VenueAddress   string     `json:"venueAddress"`
	WelcomeMessage string     `json:"welcomeMessage"`
	Published      bool       `json:"published"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type FAQItem struct {
	ID              string `json:"id,omitempty"`
	WeddingConfigID string `json:"-"`
	Question        string `json:"question"`
	Answer          string `json:"answer"`
	SortOrder       int    `json:"order"`
}

// RecordID implements reconcile.Record.
func (f FAQItem) RecordID() string { return f.ID }

type LoveStorySegment struct {
	ID              string `json:"id,omitempty"`
	WeddingConfigID string `json:"-"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	OccurredOn      string `json:"occurredOn"`
	ImageURL        string `json:"imageUrl"`
	SortOrder       int    `json:"order"`
}

// RecordID implements reconcile.Record.
func (s LoveStorySegment) RecordID() string { return s.ID }

type GalleryItem struct {
	ID              string    `json:"id"`
	WeddingConfigID string    `json:"-"`
	URL             string    `json:"url"`
	ObjectKey       string    `json:"-"`
	Caption         string    `json:"caption"`
	SortOrder       int       `json:"order"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SectionMedia is the single image or video slot attached to a named
// site section (hero, love-story header, and so on).
type SectionMedia struct {
	ID              string    `json:"id"`
	WeddingConfigID string    `json:"-"`
	Section         string    `json:"section"`
	Kind            string    `json:"kind"`
	URL             string    `json:"url"`
	ObjectKey       string    `json:"-"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type BankDetail struct {
	ID              string `json:"id,omitempty"`
	WeddingConfigID string `json:"-"`
	BankName        string `json:"bankName"`
	AccountName     string `json:"accountName"`
	AccountNumber   string `json:"accountNumber"`
	Note            string `json:"note"`
	SortOrder       int    `json:"order"`
}

type RSVP struct {
	ID              string    `json:"id"`
	WeddingConfigID string    `json:"-"`
	GuestName       string    `json:"guestName"`
	Email           string    `json:"email"`
	Attending       bool      `json:"attending"`
	GuestCount      int       `json:"guestCount"`
	Message         string    `json:"message"`
	CreatedAt       time.Time `json:"createdAt"`
}
