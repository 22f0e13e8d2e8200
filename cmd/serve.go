package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/worawit/triamsob/internal/analysis"
	"github.com/worawit/triamsob/internal/catalog"
	"github.com/worawit/triamsob/internal/examgen"
	"github.com/worawit/triamsob/internal/handler"
	appI18n "github.com/worawit/triamsob/internal/i18n"
	"github.com/worawit/triamsob/internal/keygate"
	"github.com/worawit/triamsob/internal/llm"
	"github.com/worawit/triamsob/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP exam server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "th", "Default UI language (th, en)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(serveCmd)
	// Register serve flags on root so bare `triamsob --addr ...` still works.
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

func runServe(cmd *cobra.Command) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)
	ctx := cmd.Context()

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	// Provider configuration comes from TRIAMSOB_* variables with
	// fallback to the standard API key names. A missing credential is
	// not fatal: the server starts and the UI shows the obstruction
	// view until a key is configured.
	llmCfg := llm.ConfigFromEnv()
	if llmCfg.Validate() != nil {
		if discovered, ok := llm.DiscoverConfig(); ok {
			llmCfg = discovered
		}
	}
	gate := keygate.New(llmCfg.APIKey(), nil)

	var generator *examgen.Generator
	var analyzer *analysis.Analyzer
	if err := llmCfg.Validate(); err != nil {
		slog.Warn("no usable credential, generation disabled", "error", err)
	} else {
		provider, err := llm.NewProvider(ctx, llmCfg, st)
		if err != nil {
			return fmt.Errorf("create provider: %w", err)
		}
		generator = examgen.New(provider, examgen.DefaultConfig())
		analyzer = analysis.New(provider)
		slog.Info("provider ready", "provider", llmCfg.Provider, "model", provider.ModelID())
	}

	h := handler.New(st, gate, generator, analyzer, cat, handler.Config{
		SecureCookies: v.GetBool("secure-cookies"),
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "db", dbPath, "lang", lang)
	return http.ListenAndServe(addr, r)
}
