// AngelaMos | 2026
// mail.go

package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/carterperez-dev/storefront/internal/config"
)

const confirmSubject = "Confirm your account"

var confirmTemplate = template.Must(template.New("confirm").Parse(`<p>Welcome!</p>
<p>Please confirm your email address to finish creating your account:</p>
<p><a href="{{.Link}}">Confirm my account</a></p>
<p>If you did not sign up, you can ignore this email.</p>
`))

// Mailer sends account confirmation links.
type Mailer interface {
	SendConfirmation(ctx context.Context, to, link string) error
}

// New returns the mailer selected by cfg.Driver: "smtp" or "log".
func New(cfg config.MailConfig, logger *slog.Logger) (Mailer, error) {
	switch strings.ToLower(cfg.Driver) {
	case "smtp":
		if cfg.Host == "" {
			return nil, fmt.Errorf("mail: smtp driver needs a host")
		}
		return NewSMTPMailer(cfg), nil
	case "", "log":
		return NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("mail: unknown driver %q", cfg.Driver)
	}
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
	send sendFunc
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth: auth,
		from: cfg.From,
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) SendConfirmation(ctx context.Context, to, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := render(link)
	if err != nil {
		return err
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", confirmSubject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body)

	if err := m.send(m.addr, m.auth, m.from, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("send confirmation mail: %w", err)
	}
	return nil
}

// LogMailer writes the confirmation link to the log instead of sending it.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendConfirmation(ctx context.Context, to, link string) error {
	m.logger.InfoContext(ctx, "confirmation mail", "to", to, "link", link)
	return nil
}

func render(link string) (string, error) {
	var buf bytes.Buffer
	if err := confirmTemplate.Execute(&buf, struct{ Link string }{link}); err != nil {
		return "", fmt.Errorf("render confirmation mail: %w", err)
	}
	return buf.String(), nil
}
