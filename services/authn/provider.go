package authn

import (
	"github.com/averix/identity/config"
	"github.com/averix/identity/services/codestore"
	"github.com/averix/identity/services/logging"
	"github.com/averix/identity/services/mailer"
	"github.com/averix/identity/services/tokens"
	"github.com/averix/identity/services/users"
	"go.uber.org/fx"
)

func ProvideService(cfg *config.Config, accounts *users.Store, codes codestore.Store, dispatcher *mailer.Dispatcher, issuer *tokens.Service, logger *logging.Service) *Service {
	return NewService(cfg, accounts, codes, dispatcher, issuer, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideService),
)
