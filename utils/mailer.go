package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"time"

	"gopkg.in/gomail.v2"

	"classhub/config"
)

// Mailer is the outbound notification dispatcher. It is constructed once in
// main and injected into the controllers that send mail; a send failure is
// the caller's to log, never to propagate into a request result.
type Mailer struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string
	Logger    *log.Logger
}

func NewMailer(cfg config.Config, logger *log.Logger) *Mailer {
	return &Mailer{
		dialer:    gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		Logger:    logger,
	}
}

// AssignmentEmailData feeds the assignment-created notification template.
type AssignmentEmailData struct {
	CreatedBy   string
	Subject     string
	Title       string
	Description string
	DueDate     string
	Year        int
}

// Embedded email templates
var emailTemplates = map[string]string{
	"assignment_created": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Assignment</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .due { font-weight: bold; color: #e74c3c; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>New Assignment by {{.CreatedBy}}</h2>
    </div>

    <div class="content">
        <p>Hey there, a new assignment has been created by {{.CreatedBy}} for the subject {{.Subject}}:</p>
        <h3>{{.Title}}</h3>
        <p>{{.Description}}</p>
        <p class="due">Due Date: {{.DueDate}}</p>
    </div>

    <div class="footer">
        <p>&copy; {{.Year}} ClassHub. All rights reserved.</p>
    </div>
</body>
</html>`,

	"otp": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Email Verification</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .otp-code { font-size: 24px; font-weight: bold; color: #3498db; margin: 20px 0; text-align: center; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Your Verification Code</h2>
    </div>

    <div class="content">
        <p>This email is to verify your account {{.Email}}:</p>

        <div class="otp-code">{{.OTP}}</div>

        <p>This code will expire in 15 minutes. Please don't share this code with anyone.</p>
    </div>

    <div class="footer">
        <p>If you didn't request this code, you can safely ignore this email.</p>
        <p>&copy; {{.Year}} ClassHub. All rights reserved.</p>
    </div>
</body>
</html>`,
}

// SendAssignmentCreated notifies one student that a new assignment exists.
func (m *Mailer) SendAssignmentCreated(to string, data AssignmentEmailData) error {
	data.Year = time.Now().Year()
	subject := fmt.Sprintf("New Assignment by %s", data.CreatedBy)
	return m.send(to, subject, "assignment_created", data)
}

// SendVerificationOTP emails a one-time verification code.
func (m *Mailer) SendVerificationOTP(to, otp string) error {
	return m.send(to, "Email Verification", "otp", struct {
		Email string
		OTP   string
		Year  int
	}{
		Email: to,
		OTP:   otp,
		Year:  time.Now().Year(),
	})
}

func (m *Mailer) send(to, subject, templateName string, data interface{}) error {
	tmplContent, ok := emailTemplates[templateName]
	if !ok {
		return fmt.Errorf("template '%s' not found", templateName)
	}

	tmpl, err := template.New("email").Parse(tmplContent)
	if err != nil {
		return fmt.Errorf("error parsing template: %v", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("error executing template: %v", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	return nil
}
