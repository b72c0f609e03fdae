package tokens

import (
	"github.com/averix/identity/config"
	"github.com/averix/identity/services/logging"
	"go.uber.org/fx"
)

func ProvideService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(cfg, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideService),
)
