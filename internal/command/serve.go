package command

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/go-retrobot/internal/bot"
	"github.com/tbourn/go-retrobot/internal/config"
	"github.com/tbourn/go-retrobot/internal/gateway/slackgw"
	httpapi "github.com/tbourn/go-retrobot/internal/http"
	"github.com/tbourn/go-retrobot/internal/http/handlers"
	"github.com/tbourn/go-retrobot/internal/observability"
	"github.com/tbourn/go-retrobot/internal/services"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and its HTTP endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), a.cfg, a.version)
		},
	}
}

// serve runs the HTTP server and the bot loop until ctx is cancelled or a
// termination signal arrives. It exits with the first fatal error.
func serve(ctx context.Context, cfg config.Config, version string) error {
	if err := cfg.RequireSlack(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	client := slackgw.New(cfg.Slack.BotToken, slackgw.Options{
		APIURL:    cfg.Slack.APIURL,
		RPS:       cfg.Slack.RPS,
		Burst:     cfg.Slack.Burst,
		QueueSize: cfg.Slack.QueueSize,
		DedupeTTL: cfg.Slack.DedupeTTL,
	})
	summary := services.NewSummaryEngine(cfg.Location())

	b, err := bot.New(ctx, client, store, services.NewReactionEnricher(client, cfg.Bot.EnrichConcurrency), bot.Options{
		BotName:      cfg.Bot.Name,
		PollInterval: cfg.Bot.PollInterval,
		AckReaction:  cfg.Bot.AckReaction,
		Summary:      summary,
	})
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, handlers.New(store, summary, client, cfg.Slack.SigningSecret), cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return b.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()

	// Last write so counts refreshed since the final mutation are kept.
	if perr := store.Persist(context.Background()); perr != nil {
		log.Error().Err(perr).Msg("final persist failed")
	}
	log.Info().Int("pending_events", client.Pending()).Msg("bot stopped")
	return err
}
