package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"airouter/internal/backend"
	"airouter/internal/backend/openai"
	"airouter/internal/backend/triton"
	"airouter/internal/common/fsutil"
	"airouter/internal/config"
	"airouter/internal/httpapi"
	"airouter/internal/manager"
	"airouter/internal/telemetry"
	"airouter/internal/templater"
	"airouter/internal/tokenizer"
)

type options struct {
	configFile  string
	listen      string
	logLevel    string
	corsOrigins string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "airouter:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{configFile: config.DefaultPath}
	if v := os.Getenv("AIROUTER_CONFIG"); v != "" {
		opts.configFile = v
	}
	root := &cobra.Command{
		Use:           "airouter",
		Short:         "OpenAI-compatible gateway for OpenAI and Triton backends",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}
	f := root.Flags()
	f.StringVarP(&opts.configFile, "config-file", "c", opts.configFile, "Path to the TOML, YAML or JSON config (defaults AIROUTER_CONFIG)")
	f.StringVar(&opts.listen, "listen", "", "Listen address host:port, overrides daemon.listen_ip/listen_port")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error, overrides daemon.log_level")
	f.StringVar(&opts.corsOrigins, "cors-origins", "", "Comma-separated CORS origins; enables CORS when set")
	return root
}

// applyFlags layers command line overrides on top of the file config.
func applyFlags(cfg *config.Config, opts *options) error {
	if opts.listen != "" {
		host, port, err := net.SplitHostPort(opts.listen)
		if err != nil {
			return fmt.Errorf("invalid --listen %q: %w", opts.listen, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid --listen port %q", port)
		}
		if host != "" {
			cfg.Daemon.ListenIP = host
		}
		cfg.Daemon.ListenPort = p
	}
	if opts.logLevel != "" {
		cfg.Daemon.LogLevel = opts.logLevel
	}
	if origins := splitCSV(opts.corsOrigins); len(origins) > 0 {
		cfg.Daemon.CORS.Enabled = true
		cfg.Daemon.CORS.AllowedOrigins = origins
	}
	return nil
}

func run(ctx context.Context, opts *options) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(&cfg, opts); err != nil {
		return err
	}
	d := cfg.Daemon

	logger, err := telemetry.SetupLogger(d.LogLevel, d.LogFormat)
	if err != nil {
		return err
	}
	httpapi.SetLogger(logger)

	shutdownTracing, err := telemetry.InitTracing(ctx, d.OTLPEndpoint, d.InstanceID)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("trace shutdown")
		}
	}()

	toks := tokenizer.Load(cfg.Tokenizers())
	tplDir, err := fsutil.ExpandHome(d.TemplateDir)
	if err != nil {
		return fmt.Errorf("template dir: %w", err)
	}
	if tplDir != "" && !fsutil.IsDir(tplDir) {
		log.Warn().Str("template_dir", tplDir).Msg("template directory does not exist; only built-in templates are available")
	}
	tpl, err := templater.New(tplDir)
	if err != nil {
		return err
	}
	backends, err := backend.Open(cfg.Backends, map[string]backend.Factory{
		config.BackendOpenAI: openai.Factory,
		config.BackendTriton: triton.Factory(tpl),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := backends.Close(); err != nil {
			log.Warn().Err(err).Msg("close backends")
		}
	}()
	mgr := manager.New(cfg, backends, toks)

	httpapi.SetMaxBodyBytes(d.MaxBodyBytes)
	httpapi.SetCORSOptions(d.CORS.Enabled, d.CORS.AllowedOrigins, d.CORS.AllowedMethods, d.CORS.AllowedHeaders)
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(base)

	addr := net.JoinHostPort(d.ListenIP, strconv.Itoa(d.ListenPort))
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(httpapi.NewMux(mgr), "ai-router"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Int("models", len(mgr.ListModels())).Str("instance_id", d.InstanceID).Msg("airouter listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), time.Duration(d.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		// Streams still running past the deadline are canceled.
		cancelBase()
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

// splitCSV splits a comma-separated flag value, dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
