package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rosterbot/roster-server/config"
	"github.com/rosterbot/roster-server/controllers"
	"github.com/rosterbot/roster-server/invites"
	"github.com/rosterbot/roster-server/models"
	"github.com/rosterbot/roster-server/notify"
	"github.com/rosterbot/roster-server/providers/chat"
	"github.com/rosterbot/roster-server/providers/email"
	"github.com/rosterbot/roster-server/providers/events"
	"github.com/rosterbot/roster-server/providers/verify"
	"github.com/rosterbot/roster-server/repos"
	"github.com/rosterbot/roster-server/server-go"
	"github.com/rosterbot/roster-server/utils-go"
	"go.uber.org/fx"
)

func main() {

	opts := []fx.Option{}
	opts = append(opts, provideOptions()...)
	opts = append(opts, fx.Invoke(run))

	app := fx.New(opts...)

	app.Run()
}

func provideOptions() []fx.Option {
	return []fx.Option{
		fx.Invoke(utils.ConfigureLogger),
		fx.Provide(config.Parse),
		fx.Invoke(func(config *config.Config) {
			utils.InitSharedConstants(*config.JwtParsedPublicKey)
		}),
		fx.Provide(config.ProvidePostgres),
		fx.Provide(config.ProvideSmtp),
		fx.Provide(config.ProvideRedis),
		fx.Provide(server.CreateServer),
		fx.Provide(utils.GetDefaultRouter),
		fx.Invoke(models.InitModelRegistrations),
		fx.Provide(repos.NewInvitationRepo),
		fx.Provide(repos.NewTeamRepo),
		fx.Provide(repos.NewUserRepo),
		fx.Provide(repos.NewServerConfigRepo),
		fx.Provide(chat.NewClient),
		fx.Provide(email.NewMailer),
		fx.Provide(events.NewPublisher),
		fx.Provide(verify.NewClient),
		fx.Provide(newGateway),
		fx.Provide(newLimiter),
		fx.Provide(newEngine),
		fx.Provide(newSweeper),
		fx.Invoke(controllers.RegisterInvitationsController),
		fx.Invoke(controllers.RegisterServerConfigController),
	}
}

func newGateway(messenger *chat.Client, mailer *email.Mailer, teams *repos.TeamRepo, users *repos.UserRepo, configs *repos.ServerConfigRepo) *notify.Gateway {
	return notify.NewGateway(messenger, mailer, teams, users, configs)
}

func newLimiter(config *config.Config, store *repos.InvitationRepo) *invites.Limiter {
	return invites.NewLimiter(store, config.InviteConfig.MaxPending)
}

func newEngine(config *config.Config, store *repos.InvitationRepo, teams *repos.TeamRepo, limiter *invites.Limiter, gateway *notify.Gateway, publisher *events.Publisher) *invites.Engine {
	return invites.NewEngine(store, teams, limiter, gateway, publisher, invites.SystemClock{}, config.InviteConfig.Ttl())
}

func newSweeper(config *config.Config, engine *invites.Engine) *invites.Sweeper {
	return invites.NewSweeper(engine, config.InviteConfig.SweepInterval)
}

func run(app *fiber.App, config *config.Config, sweeper *invites.Sweeper, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sweeper.Start()

			errChan := make(chan error)

			go func() {
				errChan <- app.Listen(config.Port)
			}()

			select {
			case err := <-errChan:
				return err
			case <-time.After(100 * time.Millisecond):
				return nil
			}
		},
		OnStop: func(ctx context.Context) error {
			sweeper.Stop()
			return app.Shutdown()
		},
	})
}
