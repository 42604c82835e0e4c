// Command ircchat watches, records and runs polls in Twitch chat rooms.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Travis-Britz/ircchat"
	"github.com/Travis-Britz/ircchat/internal/config"
	ilog "github.com/Travis-Britz/ircchat/internal/log"
)

var (
	// Global flags
	configPath  string
	logLevel    string
	metricsAddr string

	cfg    ircchat.Config
	logger *zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ircchat",
	Short: "Watch, record and poll Twitch chat",
	Long: `ircchat joins Twitch chat rooms over IRC.

Configuration is read from ircchat.yaml (created with defaults when missing),
then overridden by IRCCHAT_* environment variables. A .env file in the working
directory is loaded first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		bootLog := ilog.New("info")
		var err error
		cfg, _, err = config.Load(bootLog, configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = ilog.New(cfg.LogLevel)
		zerolog.SetGlobalLevel(logger.GetLevel())

		if metricsAddr != "" {
			serveMetrics(metricsAddr)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics", "", "serve prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(watchCmd, recordCmd, historyCmd, viewersCmd, pollCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newService() (*ircchat.Service, error) {
	ircchat.RegisterBuiltins()
	svc, err := ircchat.Create(ircchat.TwitchServiceID, cfg, *logger)
	if err != nil {
		return nil, err
	}
	return svc.(*ircchat.Service), nil
}

// joinChannel joins name and blocks until it is joined or has failed.
func joinChannel(ctx context.Context, c *ircchat.Channel) error {
	joined := make(chan struct{}, 1)
	failed := make(chan struct{}, 1)
	unJoin := c.OnJoin(func() {
		select {
		case joined <- struct{}{}:
		default:
		}
	})
	defer unJoin()
	unLeave := c.OnLeave(func(r ircchat.LeaveReason) {
		if r == ircchat.LeaveError {
			select {
			case failed <- struct{}{}:
			default:
			}
		}
	})
	defer unLeave()

	c.Join()
	select {
	case <-joined:
		return nil
	case <-failed:
		return fmt.Errorf("join #%s failed", c.Name())
	case <-ctx.Done():
		return ctx.Err()
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving metrics")
}
