package observe

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	otellog "go.opentelemetry.io/otel/log"
)

func TestHandlerExposesRecordedMetrics(t *testing.T) {
	ctx := context.Background()
	provider, err := InitProvider(ctx, ProviderConfig{ServiceName: "ema-voice-test"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() {
		if err := provider.Shutdown(ctx); err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	}()

	counter, err := otel.Meter("observe-test").Int64Counter("orchestration.turns")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	counter.Add(ctx, 2)

	server := httptest.NewServer(provider.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "orchestration_turns") {
		t.Fatalf("expected turn counter in output, got %s", body)
	}
}

func TestInitProviderWithServiceVersion(t *testing.T) {
	ctx := context.Background()
	provider, err := InitProvider(ctx, ProviderConfig{ServiceVersion: "1.2.3"})
	if err != nil {
		t.Fatalf("expected default resource to merge with service attributes, got %v", err)
	}
	if err := provider.Shutdown(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}

func TestLibraryLoggersReachLogWriter(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	provider, err := InitProvider(ctx, ProviderConfig{LogWriter: &out, LogLevel: slog.LevelInfo})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	logger := otelslog.NewLogger("github.com/koscakluka/ema-voice/core/llms")
	logger.Debug("pacing word")
	logger.Warn("submission failed", "error", "stream reset")

	if err := provider.Shutdown(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}

	logged := out.String()
	if !strings.Contains(logged, "submission failed") {
		t.Fatalf("expected warning in log output, got %q", logged)
	}
	if strings.Contains(logged, "pacing word") {
		t.Fatalf("expected debug record to be filtered, got %q", logged)
	}
}

func TestSeverityFollowsSlogLevels(t *testing.T) {
	testCases := []struct {
		level    slog.Level
		expected otellog.Severity
	}{
		{level: slog.LevelDebug, expected: otellog.SeverityDebug},
		{level: slog.LevelInfo, expected: otellog.SeverityInfo},
		{level: slog.LevelWarn, expected: otellog.SeverityWarn},
		{level: slog.LevelError, expected: otellog.SeverityError},
	}

	for _, testCase := range testCases {
		if got := severity(testCase.level); got != testCase.expected {
			t.Fatalf("expected severity %v for %v, got %v", testCase.expected, testCase.level, got)
		}
	}
}
