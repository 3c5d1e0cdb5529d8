package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"vibez-studio/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(toEmail, fullName string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
	appURL      string
	logger      logger.ILogger
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`
	<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
		<h2>Welcome to Vibez Studio, {{.Name}}!</h2>
		<p>Upload a CSV, describe what you want to see, and we will pick the chart.</p>
		<a href="{{.URL}}" style="background-color: #7C3AED; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Open the studio</a>
	</div>
`))

// NewEmailService returns a gomail-backed mailer, or one that only logs when
// no SMTP host is configured.
func NewEmailService(host string, port int, username, password, senderName, appURL string, log logger.ILogger) IEmailService {
	if host == "" {
		return &nopEmailService{logger: log}
	}
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
		appURL:      appURL,
		logger:      log,
	}
}

func (s *emailService) SendWelcome(toEmail, fullName string) error {
	var body bytes.Buffer
	if err := welcomeTemplate.Execute(&body, struct{ Name, URL string }{fullName, s.appURL}); err != nil {
		return fmt.Errorf("render welcome mail: %w", err)
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Welcome to Vibez Studio")
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("Mailer", "Failed to send welcome mail", map[string]interface{}{
			"to":    toEmail,
			"error": err.Error(),
		})
		return err
	}

	s.logger.Info("Mailer", "Welcome mail sent", map[string]interface{}{"to": toEmail})
	return nil
}

type nopEmailService struct {
	logger logger.ILogger
}

func (s *nopEmailService) SendWelcome(toEmail, fullName string) error {
	s.logger.Debug("Mailer", "SMTP not configured, skipping welcome mail", map[string]interface{}{"to": toEmail})
	return nil
}
