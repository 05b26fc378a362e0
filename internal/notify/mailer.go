package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-agent/internal/jobs"
)

var ErrNotConfigured = errors.New("mailer is not configured")

type Notifier interface {
	Notify(ctx context.Context, matches []*jobs.Posting) error
}

type MailerConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends watchlist alerts over SMTP with PLAIN auth.
type Mailer struct {
	cfg      MailerConfig
	password string
	send     sendFunc
	now      func() time.Time
	logger   *zap.Logger
}

func NewMailer(cfg MailerConfig, password string, logger *zap.Logger) (*Mailer, error) {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil, fmt.Errorf("%w: host, from and to are required", ErrNotConfigured)
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Username == "" {
		cfg.Username = cfg.From
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, password: password, send: smtp.SendMail, now: time.Now, logger: logger}, nil
}

// Notify mails one alert listing every match. No matches means no mail.
func (m *Mailer) Notify(ctx context.Context, matches []*jobs.Posting) error {
	if len(matches) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.password, m.cfg.Host)
	}

	m.logger.Info("sending watchlist alert", zap.String("smtp", addr), zap.Int("matches", len(matches)))
	if err := m.send(addr, auth, m.cfg.From, m.cfg.To, m.message(matches)); err != nil {
		return fmt.Errorf("sending alert: %w", err)
	}
	return nil
}

func (m *Mailer) message(matches []*jobs.Posting) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(m.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: Job alert: %d watchlist match(es)\n", len(matches))
	fmt.Fprintf(&b, "Date: %s\n", m.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\n\n")
	b.WriteString(Body(matches))
	return []byte(b.String())
}

// Body renders matches grouped by company, companies in alphabetical order.
func Body(matches []*jobs.Posting) string {
	report := (&jobs.Postings{Items: matches}).ReportByCompany()

	companies := make([]string, 0, len(report))
	for company := range report {
		companies = append(companies, company)
	}
	sort.Strings(companies)

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d posting(s) from companies on your watchlist.\n", len(matches))
	for _, company := range companies {
		fmt.Fprintf(&b, "\n%s\n", company)
		for _, entry := range report[company] {
			fmt.Fprintf(&b, "  - %s", entry["title"])
			if entry["location"] != "" {
				fmt.Fprintf(&b, " (%s)", entry["location"])
			}
			if entry["similarity"] != "" {
				fmt.Fprintf(&b, ", similarity %s", entry["similarity"])
			}
			b.WriteString("\n")
			if entry["url"] != "" {
				fmt.Fprintf(&b, "    %s\n", entry["url"])
			}
		}
	}
	return b.String()
}
