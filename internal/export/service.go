package export

import (
	"fmt"

	"wedloft/api/internal/store"
)

// Service generates the downloadable PDF invitation.
type Service struct {
	publicBaseDomain string
}

// NewService creates an export service. publicBaseDomain is the suffix
// the invitation's footer URL is built from, e.g. "wedloft.app".
func NewService(publicBaseDomain string) *Service {
	return &Service{publicBaseDomain: publicBaseDomain}
}

// ExportInvitation renders the invitation for a wedding config and
// converts it to PDF.
func (s *Service) ExportInvitation(cfg store.WeddingConfig) (*Result, error) {
	data := InvitationData{
		PartnerOneName: cfg.PartnerOneName,
		PartnerTwoName: cfg.PartnerTwoName,
		WeddingDate:    cfg.WeddingDate,
		VenueName:      cfg.VenueName,
		VenueAddress:   cfg.VenueAddress,
		WelcomeMessage: cfg.WelcomeMessage,
	}
	if s.publicBaseDomain != "" && cfg.Subdomain != "" {
		data.SiteURL = fmt.Sprintf("%s.%s", cfg.Subdomain, s.publicBaseDomain)
	}

	html, err := RenderInvitationHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render invitation: %w", err)
	}

	title := fmt.Sprintf("%s and %s", cfg.PartnerOneName, cfg.PartnerTwoName)
	return exportPDF(html, title)
}
