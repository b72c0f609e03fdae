package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/averix/identity/config"
	"github.com/averix/identity/database"
	"github.com/averix/identity/handlers"
	"github.com/averix/identity/server"
	"github.com/averix/identity/services/authn"
	"github.com/averix/identity/services/codestore"
	"github.com/averix/identity/services/logging"
	"github.com/averix/identity/services/mailer"
	"github.com/averix/identity/services/tokens"
	"github.com/averix/identity/services/users"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

type App struct {
	fx     *fx.App
	logger *logging.Service
}

// New assembles the full service graph. A nil cfg loads configuration from
// the environment.
func New(cfg *config.Config, extraOptions ...fx.Option) *App {
	app := &App{}

	options := []fx.Option{
		config.NewProvider(cfg),
		logging.Module,
		fx.Provide(func() *database.ModelsOption {
			return database.WithModels(&users.Account{})
		}),
		database.Module,
		codestore.Module,
		mailer.Module,
		tokens.Module,
		users.Module,
		authn.Module,
		server.NewProvider(),
		handlers.Module,
		fx.Populate(&app.logger),
		fx.WithLogger(func(logger *logging.Service) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Logger()}
		}),
	}
	options = append(options, extraOptions...)

	app.fx = fx.New(options...)
	return app
}

func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() {
	if err := a.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info("received shutdown signal, stopping gracefully", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Stop(ctx); err != nil {
		a.logger.Error("failed to stop application gracefully", zap.Error(err))
	}

	_ = a.logger.Sync()
}
