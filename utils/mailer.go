package utils

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"MediCore/config"

	"gopkg.in/gomail.v2"
)

// Mailer sends the transactional emails of the service.
type Mailer interface {
	SendResetCode(ctx context.Context, to, code string) error
	SendAppointmentNotice(ctx context.Context, to string, notice AppointmentNotice) error
}

// AppointmentNotice is the content of a booking status email.
type AppointmentNotice struct {
	RecipientName string
	DoctorName    string
	DateTime      time.Time
	Duration      int
	Status        string
	Reason        string
}

var resetCodeTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>Password Reset Code</title>
	<style>
		body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 0; }
		.container { background-color: #ffffff; margin: 20px auto; padding: 20px; border-radius: 8px; max-width: 600px; }
		h1 { color: #333333; }
		p { color: #666666; }
		.code { font-weight: bold; color: #007bff; }
	</style>
</head>
<body>
	<div class="container">
		<h1>Password Reset Code</h1>
		<p>Your password reset code is:</p>
		<p class="code">{{.Code}}</p>
		<p>The code expires in {{.Minutes}} minutes. If you did not request a password reset, please ignore this email.</p>
	</div>
</body>
</html>`))

var appointmentTemplate = template.Must(template.New("appointment").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
	<h1>Appointment {{.Status}}</h1>
	<p>Hello {{.RecipientName}},</p>
	<p>Your appointment with {{.DoctorName}} on {{.When}} ({{.Duration}} minutes) is now <strong>{{.Status}}</strong>.</p>
	{{if .Reason}}<p>Reason: {{.Reason}}</p>{{end}}
</body>
</html>`))

// SMTPMailer delivers mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	loc    *time.Location
}

func NewSMTPMailer(cfg config.SMTPConfig, loc *time.Location) *SMTPMailer {
	if loc == nil {
		loc = time.UTC
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		loc:    loc,
	}
}

func (m *SMTPMailer) SendResetCode(ctx context.Context, to, code string) error {
	msg, err := BuildResetCodeMessage(m.from, to, code)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *SMTPMailer) SendAppointmentNotice(ctx context.Context, to string, notice AppointmentNotice) error {
	msg, err := BuildAppointmentMessage(m.from, to, notice, m.loc)
	if err != nil {
		return err
	}
	return m.send(ctx, msg)
}

func (m *SMTPMailer) send(ctx context.Context, msg *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// BuildResetCodeMessage renders the password reset email.
func BuildResetCodeMessage(from, to, code string) (*gomail.Message, error) {
	var html bytes.Buffer
	if err := resetCodeTemplate.Execute(&html, map[string]interface{}{
		"Code":    code,
		"Minutes": int(ResetCodeExpiry.Minutes()),
	}); err != nil {
		return nil, fmt.Errorf("failed to render reset email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Password Reset Code")
	m.SetBody("text/plain", "Your password reset code is: "+code)
	m.AddAlternative("text/html", html.String())
	return m, nil
}

// BuildAppointmentMessage renders a booking status email.
func BuildAppointmentMessage(from, to string, notice AppointmentNotice, loc *time.Location) (*gomail.Message, error) {
	when := notice.DateTime.In(loc).Format("Mon 02 Jan 2006 15:04 MST")

	var html bytes.Buffer
	if err := appointmentTemplate.Execute(&html, map[string]interface{}{
		"RecipientName": notice.RecipientName,
		"DoctorName":    notice.DoctorName,
		"When":          when,
		"Duration":      notice.Duration,
		"Status":        notice.Status,
		"Reason":        notice.Reason,
	}); err != nil {
		return nil, fmt.Errorf("failed to render appointment email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Appointment %s", notice.Status))
	m.SetBody("text/plain", fmt.Sprintf("Your appointment with %s on %s is now %s.", notice.DoctorName, when, notice.Status))
	m.AddAlternative("text/html", html.String())
	return m, nil
}
