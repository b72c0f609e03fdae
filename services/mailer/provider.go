package mailer

import (
	"context"

	"github.com/averix/identity/config"
	"github.com/averix/identity/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// logSender stands in when no SMTP endpoint is configured; codes land in the
// operational log only. Useful for local development, never for production.
type logSender struct {
	logger *logging.Service
}

func (s *logSender) Send(_ context.Context, to string, kind TemplateKind, code string) error {
	s.logger.Info("mail delivery disabled, logging code instead",
		zap.String("kind", string(kind)),
		zap.String("to", to),
		zap.String("code", code))
	return nil
}

func ProvideSender(cfg *config.Config, logger *logging.Service) (Sender, error) {
	if cfg.Mail.FromAddress == "" {
		logger.Warn("no MAIL_FROM_ADDRESS configured, notifications will only be logged")
		return &logSender{logger: logger}, nil
	}
	return NewService(&cfg.Mail, cfg.App.Name, logger)
}

func ProvideDispatcher(cfg *config.Config, sender Sender, logger *logging.Service) *Dispatcher {
	return NewDispatcher(sender, logger, cfg.Auth.MailQueueSize, cfg.Auth.MailWorkers, cfg.Auth.MailSendTimeout)
}

var Module = fx.Options(
	fx.Provide(ProvideSender),
	fx.Provide(ProvideDispatcher),
	fx.Invoke(func(lc fx.Lifecycle, dispatcher *Dispatcher) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				dispatcher.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return dispatcher.Stop(ctx)
			},
		})
	}),
)
