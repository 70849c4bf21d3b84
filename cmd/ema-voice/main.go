// Command ema-voice is a terminal voice chat client. It captures speech,
// sends the transcript to a hosted language model and speaks the reply.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	orchestration "github.com/koscakluka/ema-voice/core"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/preferences"
	"github.com/koscakluka/ema-voice/core/store"
	"github.com/koscakluka/ema-voice/internal/config"
	"github.com/koscakluka/ema-voice/internal/observe"
	"github.com/koscakluka/ema-voice/internal/tui"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

type envFiles []string

func (f *envFiles) String() string { return strings.Join(*f, ",") }

func (f *envFiles) Set(value string) error {
	*f = append(*f, value)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var envs envFiles
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Var(&envs, "env", "path to a .env file, may be repeated (default .env)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: ema-voice [flags] [schema]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.Arg(0) == "schema" {
		data, err := config.SchemaJSON()
		if err != nil {
			fmt.Fprintf(os.Stderr, "ema-voice: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	cfg, err := config.Load(*configPath, envs...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ema-voice: %v\n", err)
		return 1
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ema-voice: open log file: %v\n", err)
		return 1
	}
	defer logFile.Close()
	slog.SetDefault(newLogger(logFile, cfg.LogLevel))
	slog.Info("ema-voice starting",
		"version", version,
		"inference", cfg.Inference.Provider,
		"audio", cfg.Audio.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceVersion: version,
		LogWriter:      logFile,
		LogLevel:       slogLevel(cfg.LogLevel),
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "error", err)
		return 1
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			slog.Warn("failed to shut down telemetry", "error", err)
		}
	}()

	prefs, err := preferences.OpenFile(cfg.PreferencesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ema-voice: %v\n", err)
		return 1
	}
	sessionStore := store.New(prefs)

	backends, err := buildBackends(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ema-voice: %v\n", err)
		slog.Error("failed to build backends", "error", err)
		return 1
	}

	opts := []orchestration.OrchestratorOption{
		orchestration.WithRecognizer(backends.recognizer),
		orchestration.WithInference(backends.inference),
		orchestration.WithPlayback(backends.playback),
		orchestration.WithCredential(cfg.InferenceKey()),
		orchestration.WithGreetingPolicy(orchestration.GreetingPolicy(cfg.Greeting.Policy)),
		orchestration.WithGreetingDelay(cfg.Greeting.Delay),
		orchestration.WithEventHandler(logTurnEvent),
	}
	if backends.device != nil {
		device := backends.device
		opts = append(opts,
			orchestration.WithPermissionGateway(device),
			orchestration.WithShutdown(func() error {
				device.Close()
				return nil
			}),
		)
	}
	orchestrator := orchestration.NewOrchestrator(sessionStore, opts...)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx, orchestrator, sessionStore, tui.WithVoiceLister(backends.playback))
	})
	if cfg.MetricsAddress != "" {
		g.Go(func() error {
			return provider.Serve(gctx, cfg.MetricsAddress)
		})
	}

	runErr := g.Wait()
	closeErr := orchestrator.Close()
	if err := errors.Join(runErr, closeErr); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("ema-voice stopped with error", "error", err)
		fmt.Fprintf(os.Stderr, "ema-voice: %v\n", err)
		return 1
	}

	slog.Info("ema-voice stopped")
	return 0
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(file *os.File, level config.LogLevel) *slog.Logger {
	return slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slogLevel(level)}))
}

func logTurnEvent(event events.Event) {
	switch ev := event.(type) {
	case events.TurnStateChanged:
		slog.Debug("turn state changed", "from", ev.From, "to", ev.To)
	case events.TurnRejected:
		slog.Debug("turn request rejected", "request", ev.Request, "reason", ev.Reason)
	}
}
