package mailer

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/averix/identity/config"
	"github.com/averix/identity/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// TemplateKind selects which notification a one-time code is delivered with.
type TemplateKind string

const (
	KindVerifyEmail   TemplateKind = "verify_email"
	KindResetPassword TemplateKind = "reset_password"
)

// Sender delivers a one-time code to an external address. Callers must treat
// delivery as best-effort; the returned error is for logging, not control
// flow.
type Sender interface {
	Send(ctx context.Context, to string, kind TemplateKind, code string) error
}

var subjects = map[TemplateKind]string{
	KindVerifyEmail:   "Verify your email address",
	KindResetPassword: "Reset your password",
}

var bodies = template.Must(template.New("mail").Parse(`
{{- define "verify_email" -}}
Hello,

Your {{.AppName}} email verification code is {{.Code}}.

If you did not create an account, you can ignore this message.
{{- end -}}
{{- define "reset_password" -}}
Hello,

Your {{.AppName}} password reset code is {{.Code}}.

If you did not request a reset, you can ignore this message.
{{- end -}}`))

type Service struct {
	config  *config.MailConfig
	appName string
	client  *mail.Client
	logger  *logging.Service
}

func NewService(cfg *config.MailConfig, appName string, logger *logging.Service) (*Service, error) {
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("MAIL_FROM_ADDRESS is required")
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Port),
	}

	switch cfg.Encryption {
	case "tls", "starttls":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username))
	}
	if cfg.Password != "" {
		clientOpts = append(clientOpts, mail.WithPassword(cfg.Password))
	}

	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	logger.Info("mail service initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("from_address", cfg.FromAddress))

	return &Service{
		config:  cfg,
		appName: appName,
		client:  client,
		logger:  logger,
	}, nil
}

func (s *Service) Send(ctx context.Context, to string, kind TemplateKind, code string) error {
	subject, ok := subjects[kind]
	if !ok {
		return fmt.Errorf("unknown mail template kind %q", kind)
	}

	var body bytes.Buffer
	data := map[string]any{"AppName": s.appName, "Code": code}
	if err := bodies.ExecuteTemplate(&body, string(kind), data); err != nil {
		return fmt.Errorf("failed to render mail template: %w", err)
	}

	message := mail.NewMsg()

	fromAddr := s.config.FromAddress
	if s.config.FromName != "" {
		fromAddr = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromAddress)
	}
	if err := message.From(fromAddr); err != nil {
		return fmt.Errorf("failed to set FROM address: %w", err)
	}
	if err := message.To(to); err != nil {
		return fmt.Errorf("failed to set TO address: %w", err)
	}

	message.Subject(subject)
	message.SetBodyString(mail.TypeTextPlain, body.String())

	if err := s.client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	s.logger.Info("notification sent",
		zap.String("kind", string(kind)),
		zap.String("to", to))
	return nil
}
