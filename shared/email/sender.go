package email

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"podcast-agent/internal/models"
	"podcast-agent/shared/config"
)

// Notification is the content of one outcome email
type Notification struct {
	Subject string
	Body    string
	Success bool
	Videos  []models.VideoRecord
	Result  *models.RunResult
}

type Sender struct {
	config   *config.EmailConfig
	location *time.Location
	log      *slog.Logger
	now      func() time.Time
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(cfg *config.EmailConfig, timezone string, logger *slog.Logger) *Sender {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.Local
	}
	return &Sender{
		config:   cfg,
		location: loc,
		log:      logger,
		now:      time.Now,
		send:     smtp.SendMail,
	}
}

// Notify sends the outcome email. Missing credentials skip the send without error.
func (s *Sender) Notify(n *Notification) error {
	if n == nil {
		return fmt.Errorf("notification cannot be nil")
	}
	if !s.config.Configured() {
		s.log.Debug("Email credentials not configured, skipping notification", "subject", n.Subject)
		return nil
	}

	subject := s.Subject(n)
	body, err := s.RenderBody(n)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	if err := s.SendHTML(subject, body); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	s.log.Info("Notification sent", "to", s.recipients(), "subject", subject)
	return nil
}

// Subject tags the subject with the outcome and local send time
func (s *Sender) Subject(n *Notification) string {
	tag := "[Success]"
	if !n.Success {
		tag = "[Failure]"
	}
	return fmt.Sprintf("%s %s (%s)", tag, n.Subject, s.now().In(s.location).Format("2006-01-02 15:04"))
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) recipients() []string {
	to := s.config.ToEmail
	if to == "" {
		to = s.config.Username
	}
	var out []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	from := s.config.FromEmail
	if from == "" {
		from = s.config.Username
	}
	to := s.recipients()

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		strings.Join(to, ", "), from, mime.QEncoding.Encode("utf-8", subject), body))

	// smtp.SendMail upgrades to STARTTLS when the server offers it
	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return s.send(addr, auth, from, to, msg)
}

// RenderBody renders the HTML body for n
func (s *Sender) RenderBody(n *Notification) (string, error) {
	tmpl, err := template.New("notification").Funcs(template.FuncMap{
		"localTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.In(s.location).Format("2006-01-02 15:04")
		},
	}).Parse(notificationTemplate)
	if err != nil {
		return "", err
	}

	data := struct {
		*Notification
		SentAt string
	}{
		Notification: n,
		SentAt:       s.now().In(s.location).Format("2006-01-02 15:04:05 MST"),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const notificationTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: -apple-system, 'Segoe UI', sans-serif; max-width: 640px; margin: 0 auto; padding: 20px; color: #202124;">
  <div style="border-left: 4px solid {{if .Success}}#1e8e3e{{else}}#d93025{{end}}; padding-left: 12px; margin-bottom: 16px;">
    <h2 style="margin: 0;">{{.Subject}}</h2>
    <p style="margin: 4px 0 0; color: #5f6368;">{{.SentAt}}</p>
  </div>
  <pre style="white-space: pre-wrap; font-family: inherit; background: #f8f9fa; padding: 12px; border-radius: 6px;">{{.Body}}</pre>
  {{if .Result}}
  <table style="border-collapse: collapse; margin-top: 12px;">
    <tr><td style="padding: 4px 12px 4px 0; color: #5f6368;">Sources added</td><td>{{.Result.SourcesAdded}}{{if .Result.SourcesOutcome}} ({{.Result.SourcesOutcome}}){{end}}</td></tr>
    <tr><td style="padding: 4px 12px 4px 0; color: #5f6368;">Guide panel</td><td>{{if .Result.GuidePanelOpened}}opened{{else}}not opened{{end}}</td></tr>
    {{if .Result.NotebookURL}}<tr><td style="padding: 4px 12px 4px 0; color: #5f6368;">Notebook</td><td><a href="{{.Result.NotebookURL}}">{{.Result.NotebookURL}}</a></td></tr>{{end}}
  </table>
  {{end}}
  {{if .Videos}}
  <h3 style="margin-top: 20px;">Videos ({{len .Videos}})</h3>
  <ul style="padding-left: 18px;">
    {{range .Videos}}<li style="margin-bottom: 6px;"><a href="{{.URL}}">{{.Title}}</a> <span style="color: #5f6368;">· {{.Channel}} · {{localTime .Published}}</span></li>
    {{end}}
  </ul>
  {{end}}
</body>
</html>`
