package users

import (
	"github.com/averix/identity/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideStore(db *gorm.DB, logger *logging.Service) *Store {
	return NewStore(db, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideStore),
)
