package export

import (
	"bytes"
	"html/template"
	"time"
)

// InvitationData holds the fields rendered into the invitation.
type InvitationData struct {
	PartnerOneName string
	PartnerTwoName string
	WeddingDate    string
	VenueName      string
	VenueAddress   string
	WelcomeMessage string
	SiteURL        string
}

var invitationTemplate = template.Must(template.New("invitation").Funcs(template.FuncMap{
	"prettyDate": prettyDate,
}).Parse(invitationHTML))

// RenderInvitationHTML renders the invitation template with provided data.
func RenderInvitationHTML(data InvitationData) (string, error) {
	var buf bytes.Buffer
	if err := invitationTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// prettyDate turns the stored 2006-01-02 form into a human date; the
// raw value is shown unchanged if it does not parse.
func prettyDate(value string) string {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return value
	}
	return t.Format("Monday, January 2, 2006")
}

const invitationHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.PartnerOneName}} &amp; {{.PartnerTwoName}}</title>
  <style>
    body { font-family: Georgia, 'Times New Roman', serif; color: #3a3a3a; text-align: center; margin: 3rem auto; max-width: 640px; }
    .names { font-size: 2.4em; letter-spacing: 0.08em; margin-bottom: 0.4em; }
    .amp { font-size: 1.4em; color: #b08d57; margin: 0 0.3em; }
    .rule { width: 120px; border: none; border-top: 1px solid #b08d57; margin: 1.5rem auto; }
    .date { font-size: 1.2em; text-transform: uppercase; letter-spacing: 0.2em; }
    .venue { margin-top: 1.2rem; font-size: 1.05em; }
    .address { color: #777; font-size: 0.95em; }
    .welcome { margin-top: 2rem; font-style: italic; line-height: 1.7; }
    .site { margin-top: 2.5rem; font-size: 0.9em; color: #b08d57; letter-spacing: 0.05em; }
  </style>
</head>
<body>
  <div class="names">{{.PartnerOneName}}<span class="amp">&amp;</span>{{.PartnerTwoName}}</div>
  <hr class="rule">
  {{if .WeddingDate}}<div class="date">{{prettyDate .WeddingDate}}</div>{{end}}
  {{if .VenueName}}<div class="venue">{{.VenueName}}</div>{{end}}
  {{if .VenueAddress}}<div class="address">{{.VenueAddress}}</div>{{end}}
  {{if .WelcomeMessage}}<p class="welcome">{{.WelcomeMessage}}</p>{{end}}
  {{if .SiteURL}}<div class="site">{{.SiteURL}}</div>{{end}}
</body>
</html>`
