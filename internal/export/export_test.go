package export

import (
	"strings"
	"testing"
)

func TestRenderInvitationHTML(t *testing.T) {
	html, err := RenderInvitationHTML(InvitationData{
		PartnerOneName: "Anna",
		PartnerTwoName: "Ben",
		WeddingDate:    "2026-06-20",
		VenueName:      "Rosewood Hall",
		VenueAddress:   "12 Garden Lane",
		WelcomeMessage: "We can't wait to celebrate with you.",
		SiteURL:        "anna-and-ben.wedloft.app",
	})
	if err != nil {
		t.Fatalf("RenderInvitationHTML() error = %v", err)
	}

	for _, want := range []string{
		"Anna",
		"Ben",
		"Saturday, June 20, 2026",
		"Rosewood Hall",
		"12 Garden Lane",
		"anna-and-ben.wedloft.app",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered invitation missing %q", want)
		}
	}
}

func TestRenderInvitationHTMLEscapesContent(t *testing.T) {
	html, err := RenderInvitationHTML(InvitationData{
		PartnerOneName: "Anna",
		PartnerTwoName: "Ben",
		WelcomeMessage: `<script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatalf("RenderInvitationHTML() error = %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("welcome message was not escaped")
	}
}

func TestRenderInvitationHTMLOmitsEmptySections(t *testing.T) {
	html, err := RenderInvitationHTML(InvitationData{
		PartnerOneName: "Anna",
		PartnerTwoName: "Ben",
	})
	if err != nil {
		t.Fatalf("RenderInvitationHTML() error = %v", err)
	}
	for _, class := range []string{"date", "venue", "address", "welcome", "site"} {
		if strings.Contains(html, `class="`+class+`"`) {
			t.Errorf("expected empty %s section to be omitted", class)
		}
	}
}

func TestPrettyDateFallsBackToRawValue(t *testing.T) {
	if got := prettyDate("June next year"); got != "June next year" {
		t.Errorf("expected unparseable date to pass through, got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Anna and Ben":        "Anna-and-Ben",
		"Ánna & Bén!":         "nna--Bn",
		"":                    "invitation",
		strings.Repeat("a", 60): strings.Repeat("a", 50),
	}
	for input, want := range cases {
		if got := sanitizeFilename(input); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b+c")
	if got != "a%20b%2Bc" {
		t.Errorf("unexpected encoding %q", got)
	}
}
