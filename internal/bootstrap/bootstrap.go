// Package bootstrap wires configuration, telemetry and collaborators shared
// by the agora binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/agora/common/id"
	"basegraph.app/agora/common/llm"
	"basegraph.app/agora/common/logger"
	"basegraph.app/agora/common/otel"
	"basegraph.app/agora/core/config"
	"basegraph.app/agora/internal/board"
	"basegraph.app/agora/internal/brain"
	"basegraph.app/agora/internal/discussion"
	"basegraph.app/agora/internal/model"
)

// Snowflake node per binary so IDs from concurrent runs never collide.
var nodeIDs = map[config.ServiceType]int64{
	config.ServiceTypeCycle:      1,
	config.ServiceTypeDiscussion: 2,
	config.ServiceTypeAgent:      3,
}

type Runtime struct {
	Config  config.Config
	Agents  []model.AgentIdentity
	Clients llm.ClientFactory

	telemetry *otel.Telemetry
}

// Start loads config and the agent roster and installs logging and telemetry.
// Callers must defer Shutdown.
func Start(ctx context.Context, service config.ServiceType) (*Runtime, error) {
	cfg, err := config.Load(service)
	if err != nil {
		return nil, err
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}
	logger.Setup(cfg)

	if err := id.Init(nodeIDs[service]); err != nil {
		_ = telemetry.Shutdown(ctx)
		return nil, fmt.Errorf("initializing id generator: %w", err)
	}

	agents, err := config.LoadRoster(cfg.AgentsFile)
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		return nil, err
	}

	slog.InfoContext(ctx, "agora starting",
		"service", service,
		"env", cfg.Env,
		"agents", len(agents),
		"board_api", cfg.Board.APIURL,
		"telemetry", cfg.OTel.Enabled())

	return &Runtime{
		Config: cfg,
		Agents: agents,
		Clients: llm.NewFactory(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			MaxTokens:      cfg.LLM.MaxTokens,
			RequestTimeout: cfg.LLM.RequestTimeout,
		}),
		telemetry: telemetry,
	}, nil
}

// Shutdown flushes telemetry. It gets its own deadline so an interrupted run
// still exports its spans.
func (r *Runtime) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.telemetry.Shutdown(ctx); err != nil {
		slog.WarnContext(ctx, "telemetry shutdown failed", "error", err)
	}
}

func (r *Runtime) CallerOptions() []llm.CallerOption {
	return []llm.CallerOption{
		llm.WithMaxAttempts(r.Config.LLM.MaxAttempts),
		llm.WithBaseDelay(r.Config.LLM.RetryBaseDelay),
	}
}

func (r *Runtime) BrainOptions() []brain.Option {
	return []brain.Option{
		brain.WithCommunity(r.Config.Board.Community),
		brain.WithLanguage(r.Config.Board.Language),
	}
}

// Brain builds a brain backed by the given model.
func (r *Runtime) Brain(modelID string) (*brain.Brain, error) {
	client, err := r.Clients(modelID)
	if err != nil {
		return nil, err
	}
	return brain.New(llm.NewCaller(client, r.CallerOptions()...), r.BrainOptions()...), nil
}

func (r *Runtime) BoardClient() *board.Client {
	return board.NewClient(r.Config.Board.APIURL, board.WithTimeout(r.Config.Board.RequestTimeout))
}

// Scheduler builds a discussion scheduler where every turn gets a fresh board
// session and a brain on the agent's own model.
func (r *Runtime) Scheduler() *discussion.Scheduler {
	return discussion.NewScheduler(
		r.BoardClient(),
		func() discussion.Session { return r.BoardClient() },
		discussion.BrainWriters(r.Clients, r.CallerOptions(), r.BrainOptions()...),
		discussion.WithConcurrency(r.Config.Discussion.Concurrency),
	)
}
