package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Kind identifies a message template. Mock senders key stored messages by it.
type Kind string

const (
	KindVerificationCode  Kind = "verification_code"
	KindOrderConfirmation Kind = "order_confirmation"
	KindUnknown           Kind = "unknown"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

var templates = map[Kind]messageTemplate{
	KindVerificationCode: {
		subject: template.Must(template.New("subject").Parse("Your Blast verification code")),
		body: template.Must(template.New("body").Parse(`Hi {{.Name}},

Your verification code is {{.Code}}. It expires in {{.ExpiresIn}}.

If you did not request this code you can ignore this message.
`)),
	},
	KindOrderConfirmation: {
		subject: template.Must(template.New("subject").Parse("Blast order {{.OrderID}} confirmed")),
		body: template.Must(template.New("body").Parse(`Hi {{.FirstName}},

Thanks for your order. Your campaign {{.CampaignID}} is now active.

Order:  {{.OrderID}}
Amount: ${{printf "%.2f" .Amount}}
`)),
	},
}

// VerificationCodeData fills the verification code template.
type VerificationCodeData struct {
	Name      string
	Code      string
	ExpiresIn time.Duration
}

// OrderConfirmationData fills the order confirmation template.
type OrderConfirmationData struct {
	FirstName  string
	OrderID    string
	CampaignID string
	Amount     float64
}

// Render executes the templates of kind with data.
func Render(kind Kind, data any) (subject, body string, err error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown message kind %q", kind)
	}
	var sb, bb bytes.Buffer
	if err := tmpl.subject.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", kind, err)
	}
	if err := tmpl.body.Execute(&bb, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", kind, err)
	}
	return sb.String(), bb.String(), nil
}

// KindForSubject recovers the template kind from a rendered subject line.
func KindForSubject(subject string) Kind {
	switch {
	case strings.Contains(subject, "verification code"):
		return KindVerificationCode
	case strings.HasPrefix(subject, "Blast order"):
		return KindOrderConfirmation
	default:
		return KindUnknown
	}
}

// BuildMessage assembles a plain text RFC 5322 message.
func BuildMessage(from, to, subject, body string, now time.Time) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\r\n")
	}
	return []byte(sb.String())
}
