package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wedloft/api/internal/reconcile"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ── Users ──

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, is_email_verified, verification_token)
		VALUES ($1, LOWER($2), $3, $4, $5, $6)
	`, user.ID, user.Email, user.DisplayName, user.PasswordHash, user.IsEmailVerified, user.VerificationToken)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, is_email_verified
		FROM users WHERE email = LOWER($1)
	`, email).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.IsEmailVerified)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, is_email_verified
		FROM users WHERE id=$1
	`, userID).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.IsEmailVerified)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET verification_token=$2, verification_expires_at=$3, updated_at=NOW() WHERE id=$1
	`, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("update verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyUserEmail(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET is_email_verified=TRUE, verification_token='', verification_expires_at=NULL, updated_at=NOW()
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify email rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO NOTHING
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM password_resets
		WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`, token).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark reset used: %w", err)
	}
	return nil
}

// ── Wedding configs ──

func (s *PostgresStore) CreateWeddingConfig(ctx context.Context, config WeddingConfig) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wedding_configs (id, user_id, subdomain, partner_one_name, partner_two_name,
			wedding_date, venue_name, venue_address, welcome_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, config.ID, config.UserID, config.Subdomain, config.PartnerOneName, config.PartnerTwoName,
		config.WeddingDate, config.VenueName, config.VenueAddress, config.WelcomeMessage)
	if err != nil {
		return fmt.Errorf("insert wedding config: %w", err)
	}
	return nil
}

func scanWeddingConfig(row *sql.Row) (WeddingConfig, error) {
	var config WeddingConfig
	err := row.Scan(&config.ID, &config.UserID, &config.Subdomain,
		&config.PartnerOneName, &config.PartnerTwoName, &config.WeddingDate,
		&config.VenueName, &config.VenueAddress, &config.WelcomeMessage,
		&config.Published, &config.PublishedAt, &config.CreatedAt, &config.UpdatedAt)
	if err != nil {
		return WeddingConfig{}, err
	}
	return config, nil
}

const weddingConfigColumns = `id, user_id, subdomain, partner_one_name, partner_two_name,
	wedding_date, venue_name, venue_address, welcome_message, published, published_at, created_at, updated_at`

func (s *PostgresStore) GetWeddingConfig(ctx context.Context, configID string) (WeddingConfig, error) {
	return scanWeddingConfig(s.db.QueryRowContext(ctx,
		`SELECT `+weddingConfigColumns+` FROM wedding_configs WHERE id=$1`, configID))
}

func (s *PostgresStore) GetWeddingConfigByUser(ctx context.Context, userID string) (WeddingConfig, error) {
	return scanWeddingConfig(s.db.QueryRowContext(ctx,
		`SELECT `+weddingConfigColumns+` FROM wedding_configs WHERE user_id=$1`, userID))
}

func (s *PostgresStore) GetWeddingConfigBySubdomain(ctx context.Context, subdomain string) (WeddingConfig, error) {
	return scanWeddingConfig(s.db.QueryRowContext(ctx,
		`SELECT `+weddingConfigColumns+` FROM wedding_configs WHERE subdomain=$1`, subdomain))
}

func (s *PostgresStore) SubdomainTaken(ctx context.Context, subdomain, excludeConfigID string) (bool, error) {
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM wedding_configs WHERE subdomain=$1 AND id <> $2)`,
		subdomain, excludeConfigID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check subdomain: %w", err)
	}
	return taken, nil
}

func (s *PostgresStore) UpdateWeddingConfig(ctx context.Context, config WeddingConfig) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE wedding_configs
		SET subdomain=$2, partner_one_name=$3, partner_two_name=$4, wedding_date=$5,
			venue_name=$6, venue_address=$7, welcome_message=$8, updated_at=NOW()
		WHERE id=$1
	`, config.ID, config.Subdomain, config.PartnerOneName, config.PartnerTwoName,
		config.WeddingDate, config.VenueName, config.VenueAddress, config.WelcomeMessage)
	if err != nil {
		return fmt.Errorf("update wedding config: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, configID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE wedding_configs SET published=TRUE, published_at=NOW(), updated_at=NOW() WHERE id=$1`, configID)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// ── Feature toggles ──

func (s *PostgresStore) GetFeatures(ctx context.Context, configID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT feature, enabled FROM wedding_features WHERE wedding_config_id=$1`, configID)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	defer rows.Close()

	features := make(map[string]bool)
	for rows.Next() {
		var name string
		var enabled bool
		if err := rows.Scan(&name, &enabled); err != nil {
			return nil, fmt.Errorf("scan feature: %w", err)
		}
		features[name] = enabled
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate features: %w", err)
	}
	return features, nil
}

// SetFeatures applies every toggle in one transaction so a batch of
// toggles lands atomically.
func (s *PostgresStore) SetFeatures(ctx context.Context, configID string, features map[string]bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin features tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for name, enabled := range features {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wedding_features (wedding_config_id, feature, enabled)
			VALUES ($1, $2, $3)
			ON CONFLICT (wedding_config_id, feature) DO UPDATE SET enabled=EXCLUDED.enabled
		`, configID, name, enabled); err != nil {
			return fmt.Errorf("upsert feature %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit features tx: %w", err)
	}
	return nil
}

// ── FAQ items ──

func (s *PostgresStore) ListFAQs(ctx context.Context, configID string) ([]FAQItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wedding_config_id, question, answer, sort_order
		FROM faq_items WHERE wedding_config_id=$1 ORDER BY sort_order, id
	`, configID)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	defer rows.Close()

	items := make([]FAQItem, 0)
	for rows.Next() {
		var item FAQItem
		if err := rows.Scan(&item.ID, &item.WeddingConfigID, &item.Question, &item.Answer, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("scan faq: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faqs: %w", err)
	}
	return items, nil
}

// ApplyFAQPlan executes a reconciliation plan inside one transaction:
// the batch fully commits or the collection is untouched.
func (s *PostgresStore) ApplyFAQPlan(ctx context.Context, configID string, plan reconcile.Plan[FAQItem]) error {
	if plan.Empty() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin faq batch tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range plan.Creates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO faq_items (id, wedding_config_id, question, answer, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, item.ID, configID, item.Question, item.Answer, item.SortOrder); err != nil {
			return fmt.Errorf("insert faq %s: %w", item.ID, err)
		}
	}
	for _, item := range plan.Updates {
		if _, err := tx.ExecContext(ctx, `
			UPDATE faq_items SET question=$3, answer=$4, sort_order=$5
			WHERE id=$1 AND wedding_config_id=$2
		`, item.ID, configID, item.Question, item.Answer, item.SortOrder); err != nil {
			return fmt.Errorf("update faq %s: %w", item.ID, err)
		}
	}
	for _, id := range plan.Deletes {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM faq_items WHERE id=$1 AND wedding_config_id=$2`, id, configID); err != nil {
			return fmt.Errorf("delete faq %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit faq batch tx: %w", err)
	}
	return nil
}

// ── Love-story segments ──

func (s *PostgresStore) ListLoveStory(ctx context.Context, configID string) ([]LoveStorySegment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wedding_config_id, title, body, occurred_on, image_url, sort_order
		FROM love_story_segments WHERE wedding_config_id=$1 ORDER BY sort_order, id
	`, configID)
	if err != nil {
		return nil, fmt.Errorf("list love story: %w", err)
	}
	defer rows.Close()

	segments := make([]LoveStorySegment, 0)
	for rows.Next() {
		var segment LoveStorySegment
		if err := rows.Scan(&segment.ID, &segment.WeddingConfigID, &segment.Title, &segment.Body,
			&segment.OccurredOn, &segment.ImageURL, &segment.SortOrder); err != nil {
			return nil, fmt.Errorf("scan love story segment: %w", err)
		}
		segments = append(segments, segment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate love story: %w", err)
	}
	return segments, nil
}

func (s *PostgresStore) ApplyLoveStoryPlan(ctx context.Context, configID string, plan reconcile.Plan[LoveStorySegment]) error {
	if plan.Empty() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin love story batch tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, segment := range plan.Creates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO love_story_segments (id, wedding_config_id, title, body, occurred_on, image_url, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, segment.ID, configID, segment.Title, segment.Body, segment.OccurredOn, segment.ImageURL, segment.SortOrder); err != nil {
			return fmt.Errorf("insert segment %s: %w", segment.ID, err)
		}
	}
	for _, segment := range plan.Updates {
		if _, err := tx.ExecContext(ctx, `
			UPDATE love_story_segments SET title=$3, body=$4, occurred_on=$5, image_url=$6, sort_order=$7
			WHERE id=$1 AND wedding_config_id=$2
		`, segment.ID, configID, segment.Title, segment.Body, segment.OccurredOn, segment.ImageURL, segment.SortOrder); err != nil {
			return fmt.Errorf("update segment %s: %w", segment.ID, err)
		}
	}
	for _, id := range plan.Deletes {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM love_story_segments WHERE id=$1 AND wedding_config_id=$2`, id, configID); err != nil {
			return fmt.Errorf("delete segment %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit love story batch tx: %w", err)
	}
	return nil
}

// ── Bank details ──

func (s *PostgresStore) ListBankDetails(ctx context.Context, configID string) ([]BankDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wedding_config_id, bank_name, account_name, account_number, note, sort_order
		FROM bank_details WHERE wedding_config_id=$1 ORDER BY sort_order, id
	`, configID)
	if err != nil {
		return nil, fmt.Errorf("list bank details: %w", err)
	}
	defer rows.Close()

	details := make([]BankDetail, 0)
	for rows.Next() {
		var detail BankDetail
		if err := rows.Scan(&detail.ID, &detail.WeddingConfigID, &detail.BankName, &detail.AccountName,
			&detail.AccountNumber, &detail.Note, &detail.SortOrder); err != nil {
			return nil, fmt.Errorf("scan bank detail: %w", err)
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bank details: %w", err)
	}
	return details, nil
}

// ReplaceBankDetails swaps the whole collection in one transaction;
// the form submits the full list.
func (s *PostgresStore) ReplaceBankDetails(ctx context.Context, configID string, details []BankDetail) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bank details tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bank_details WHERE wedding_config_id=$1`, configID); err != nil {
		return fmt.Errorf("clear bank details: %w", err)
	}
	for _, detail := range details {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bank_details (id, wedding_config_id, bank_name, account_name, account_number, note, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, detail.ID, configID, detail.BankName, detail.AccountName, detail.AccountNumber, detail.Note, detail.SortOrder); err != nil {
			return fmt.Errorf("insert bank detail %s: %w", detail.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bank details tx: %w", err)
	}
	return nil
}

// ── Gallery ──

func (s *PostgresStore) ListGallery(ctx context.Context, configID string) ([]GalleryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wedding_config_id, url, object_key, caption, sort_order, created_at
		FROM gallery_items WHERE wedding_config_id=$1 ORDER BY sort_order, created_at
	`, configID)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}
	defer rows.Close()

	items := make([]GalleryItem, 0)
	for rows.Next() {
		var item GalleryItem
		if err := rows.Scan(&item.ID, &item.WeddingConfigID, &item.URL, &item.ObjectKey,
			&item.Caption, &item.SortOrder, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan gallery item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) InsertGalleryItem(ctx context.Context, item GalleryItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gallery_items (id, wedding_config_id, url, object_key, caption, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, item.ID, item.WeddingConfigID, item.URL, item.ObjectKey, item.Caption, item.SortOrder)
	if err != nil {
		return fmt.Errorf("insert gallery item: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetGalleryItem(ctx context.Context, configID, itemID string) (GalleryItem, error) {
	var item GalleryItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, wedding_config_id, url, object_key, caption, sort_order, created_at
		FROM gallery_items WHERE id=$1 AND wedding_config_id=$2
	`, itemID, configID).Scan(&item.ID, &item.WeddingConfigID, &item.URL, &item.ObjectKey,
		&item.Caption, &item.SortOrder, &item.CreatedAt)
	if err != nil {
		return GalleryItem{}, err
	}
	return item, nil
}

func (s *PostgresStore) DeleteGalleryItem(ctx context.Context, configID, itemID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM gallery_items WHERE id=$1 AND wedding_config_id=$2`, itemID, configID)
	if err != nil {
		return fmt.Errorf("delete gallery item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete gallery item rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ── Section media ──

func (s *PostgresStore) UpsertSectionMedia(ctx context.Context, media SectionMedia) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO section_media (id, wedding_config_id, section, kind, url, object_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (wedding_config_id, section)
		DO UPDATE SET kind=EXCLUDED.kind, url=EXCLUDED.url, object_key=EXCLUDED.object_key, updated_at=NOW()
	`, media.ID, media.WeddingConfigID, media.Section, media.Kind, media.URL, media.ObjectKey)
	if err != nil {
		return fmt.Errorf("upsert section media: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSectionMedia(ctx context.Context, configID string) ([]SectionMedia, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wedding_config_id, section, kind, url, object_key, updated_at
		FROM section_media WHERE wedding_config_id=$1 ORDER BY section
	`, configID)
	if err != nil {
		return nil, fmt.Errorf("list section media: %w", err)
	}
	defer rows.Close()

	items := make([]SectionMedia, 0)
	for rows.Next() {
		var media SectionMedia
		if err := rows.Scan(&media.ID, &media.WeddingConfigID, &media.Section, &media.Kind,
			&media.URL, &media.ObjectKey, &media.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan section media: %w", err)
		}
		items = append(items, media)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section media: %w", err)
	}
	return items, nil
}

// ── RSVPs ──

func (s *PostgresStore) InsertRSVP(ctx context.Context, rsvp RSVP) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rsvps (id, wedding_config_id, guest_name, email, attending, guest_count, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rsvp.ID, rsvp.WeddingConfigID, rsvp.GuestName, rsvp.Email, rsvp.Attending, rsvp.GuestCount, rsvp.Message)
	if err != nil {
		return fmt.Errorf("insert rsvp: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRSVPs(ctx context.Context, configID string) ([]RSVP, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wedding_config_id, guest_name, email, attending, guest_count, message, created_at
		FROM rsvps WHERE wedding_config_id=$1 ORDER BY created_at DESC
	`, configID)
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	defer rows.Close()

	items := make([]RSVP, 0)
	for rows.Next() {
		var rsvp RSVP
		if err := rows.Scan(&rsvp.ID, &rsvp.WeddingConfigID, &rsvp.GuestName, &rsvp.Email,
			&rsvp.Attending, &rsvp.GuestCount, &rsvp.Message, &rsvp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rsvp: %w", err)
		}
		items = append(items, rsvp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rsvps: %w", err)
	}
	return items, nil
}

// ── Sessions (Postgres fallback for the Redis registry) ──

func (s *PostgresStore) SaveSession(ctx context.Context, tokenHash, userID, configID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token_hash, user_id, wedding_config_id, last_activity, expires_at)
		VALUES ($1, $2, $3, NOW(), $4)
		ON CONFLICT (token_hash) DO UPDATE
		SET user_id=EXCLUDED.user_id, wedding_config_id=EXCLUDED.wedding_config_id,
			last_activity=NOW(), expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, configID, expiresAt)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) TouchSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_activity=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *PostgresStore) SessionRevoked(ctx context.Context, tokenHash string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM sessions WHERE token_hash=$1 AND (revoked_at IS NOT NULL OR expires_at <= NOW()))
	`, tokenHash).Scan(&revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check session: %w", err)
	}
	return revoked, nil
}
