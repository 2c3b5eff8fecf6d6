package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Daxiongmao87/termaite-go/internal/config"
	"github.com/Daxiongmao87/termaite-go/internal/contextstore"
	"github.com/Daxiongmao87/termaite-go/internal/executor"
	"github.com/Daxiongmao87/termaite-go/internal/llmclient"
	"github.com/Daxiongmao87/termaite-go/internal/logging"
	"github.com/Daxiongmao87/termaite-go/internal/metrics"
	"github.com/Daxiongmao87/termaite-go/internal/payload"
	"github.com/Daxiongmao87/termaite-go/internal/permission"
	"github.com/Daxiongmao87/termaite-go/internal/safety"
)

// components bundles every leaf collaborator the run/ask/REPL paths
// assemble the Task Engine or Simple Handler from.
type components struct {
	cfg       *config.Config
	allow     *config.AllowlistRepository
	builder   *payload.Builder
	llm       *llmclient.Client
	safety    *safety.Checker
	perm      *permission.Manager
	exec      *executor.Executor
	store     *contextstore.Store
	confirmer permission.Confirmer
	cwd       string
	metrics   *metrics.Metrics
}

// buildComponents resolves configuration from flags and wires every
// leaf component, including the Permission Manager's interactive
// prompt and "always allow" description flow.
func buildComponents(flags *globalFlags) (*components, error) {
	if flags.verbose {
		logging.SetLevel("debug")
	}

	cfg, err := config.Load(loadOverrides(flags))
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	allow := config.NewAllowlistRepository(cfg)
	builder := payload.New(cfg, allow)
	llm := llmclient.New(cfg.Endpoint, cfg.APIKey, cfg.ResponsePath, cfg.CommandTimeout)
	checker := safety.New()
	exec := executor.New()

	colorEnabled := isTTY()
	prompter := permission.NewInteractivePrompter(colorEnabled)
	perm := permission.New(cfg, allow, prompter)
	perm.WithDescriptionFlow(helpCapturer{exec: exec}, &llmDescriptionRequester{builder: builder, llm: llm})

	var confirmer permission.Confirmer
	if cfg.OperationMode == config.Restricted {
		confirmer = permission.NewRestrictedConfirmer(os.Stdin, colorEnabled)
	}

	storePath, err := contextStorePath()
	if err != nil {
		return nil, err
	}
	store := contextstore.New(storePath)

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if flags.metricsAddr != "" {
		serveMetrics(flags.metricsAddr, reg)
	}

	return &components{
		cfg:       cfg,
		allow:     allow,
		builder:   builder,
		llm:       llm,
		safety:    checker,
		perm:      perm,
		exec:      exec,
		store:     store,
		confirmer: confirmer,
		cwd:       cwd,
		metrics:   m,
	}, nil
}

// serveMetrics starts a background HTTP server exposing reg's
// collectors at /metrics. Listen failures are logged, not fatal: a
// broken metrics port should never stop a task from running.
func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.NewComponentLogger("metrics").Warn("metrics server stopped: %v", err)
		}
	}()
}

// contextStorePath returns ~/.termaite/context.json, creating the
// parent directory if needed.
func contextStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".termaite")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return filepath.Join(dir, "context.json"), nil
}

// helpCapturer adapts *executor.Executor to permission.CommandRunner's
// (output string, success bool) return shape for --help/-h capture.
type helpCapturer struct {
	exec *executor.Executor
}

func (h helpCapturer) Run(ctx context.Context, command string, timeout time.Duration) (string, bool) {
	result := h.exec.Run(ctx, command, timeout)
	return result.Output, result.Success
}
