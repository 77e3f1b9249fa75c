package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/schedsense/schedsense/ai/agent"
	"github.com/schedsense/schedsense/ai/core/llm"
	"github.com/schedsense/schedsense/ai/extractor"
	"github.com/schedsense/schedsense/ai/metrics"
	"github.com/schedsense/schedsense/internal/logging"
	"github.com/schedsense/schedsense/internal/profile"
	"github.com/schedsense/schedsense/internal/version"
	"github.com/schedsense/schedsense/plugin/calendar"
	"github.com/schedsense/schedsense/server"
	"github.com/schedsense/schedsense/store"
)

var rootCmd = &cobra.Command{
	Use:   "schedsense",
	Short: "A conversational scheduling assistant. Chat in natural language, get calendar events.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Only load .env for direct binary execution; a systemd unit carries
		// its own environment.
		if !isRunningAsSystemdService() {
			_ = godotenv.Load()
		}
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		prof, err := loadProfile()
		if err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
		logging.Setup(prof.Mode)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		deps, err := buildServices(ctx, prof)
		if err != nil {
			slog.Error("failed to initialize services", "error", err)
			os.Exit(1)
		}

		exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
		mgr := agent.NewManager(deps.store, deps.extractor, deps.calendar, prof.Location(), exporter)

		s, err := server.NewServer(ctx, prof, deps.store, mgr, deps.calendar, exporter)
		if err != nil {
			slog.Error("failed to create server", "error", err)
			os.Exit(1)
		}

		c := make(chan os.Signal, 1)
		// The default signal sent by `kill` is SIGTERM, which most process
		// managers use to request a graceful shutdown.
		signal.Notify(c, terminationSignals...)

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
		printGreetings(prof)

		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		<-ctx.Done()
	},
}

// serviceDeps are the domain services shared by the serve and chat commands.
type serviceDeps struct {
	store     *store.SessionStore
	extractor *extractor.Extractor
	calendar  calendar.Service
}

func loadProfile() (*profile.Profile, error) {
	prof := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Version: version.String(),
	}
	prof.FromEnv()
	if err := prof.Validate(); err != nil {
		return nil, err
	}
	return prof, nil
}

func buildServices(ctx context.Context, prof *profile.Profile) (*serviceDeps, error) {
	llmService, err := llm.NewService(&llm.Config{
		Provider: prof.LLMProvider,
		Model:    prof.LLMModel,
		APIKey:   prof.LLMAPIKey,
		BaseURL:  prof.LLMBaseURL,
		Timeout:  prof.LLMTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("llm service: %w", err)
	}
	// Best effort; a cold provider just makes the first turn slower.
	go llmService.Warmup(context.Background())

	cal, err := calendar.NewGoogleClient(ctx,
		prof.GoogleClientID,
		prof.GoogleClientSecret,
		prof.GoogleTokenFile,
		prof.GoogleCalendarID,
	)
	if err != nil {
		return nil, fmt.Errorf("calendar client: %w", err)
	}

	return &serviceDeps{
		store:     store.NewSessionStore(prof.SessionTTL()),
		extractor: extractor.New(llmService, prof.Location(), int64(prof.MaxConcurrentExtractions)),
		calendar:  cal,
	}, nil
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")

	for _, flag := range []string{"mode", "addr", "port"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("schedsense")
	viper.AutomaticEnv()

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.StringFull())
	},
}

func printGreetings(prof *profile.Profile) {
	fmt.Printf("SchedSense %s started successfully!\n", prof.Version)
	if prof.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}
	fmt.Printf("Mode: %s\n", prof.Mode)
	fmt.Printf("LLM: %s (%s)\n", prof.LLMProvider, prof.LLMModel)
	if len(prof.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", prof.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", prof.Addr, prof.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd.
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
