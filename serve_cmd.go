package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/studybuddy-ai/studybuddy/internal/config"
	"github.com/studybuddy-ai/studybuddy/internal/llm"
	"github.com/studybuddy-ai/studybuddy/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: paragraph(fmt.Sprintf("\n%s speech and the study tools over HTTP. "+
		"Changes to the log level in the config file apply without a restart.", keyword("Serve"))),
	Example: paragraph("studybuddy serve --addr 127.0.0.1:8501"),
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8501", "address to listen on")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	v, err := newVoice(cfg.Speech)
	if err != nil {
		return err
	}
	defer v.Close() //nolint:errcheck

	var assistant server.Assistant
	client, err := newAssistant(cfg.LLM)
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		log.Warn("Study tools disabled", "reason", err)
	case err != nil:
		return err
	default:
		assistant = client
	}

	srv := server.New(server.Config{
		BrowserLimit: cfg.Server.BrowserLimit,
		ServerLimit:  cfg.Server.ServerLimit,
		BodyLimit:    cfg.Server.BodyLimitMB << 20,
		Logger:       componentLogger("http"),
	}, v, assistant)

	watchConfig()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Listen(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")
		v.Stop()

		sctx, scancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer scancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("unable to shut down: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchConfig re-reads the config file on change and applies the new log
// level. Other settings need a restart.
func watchConfig() {
	if viper.ConfigFileUsed() == "" {
		return
	}
	level := cfg.LogLevel
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := config.Load(viper.GetViper())
		if err != nil {
			log.Warn("Ignoring invalid configuration change", "path", e.Name, "error", err)
			return
		}
		if next.LogLevel != level && !debug && !secrets.Debug {
			log.Info("Log level changed", "from", level, "to", next.LogLevel)
			setLogLevel(next.LogLevel)
		}
		level = next.LogLevel
	})
	viper.WatchConfig()
}
