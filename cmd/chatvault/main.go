package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/chatvault/chatvault/internal/agent"
	"github.com/chatvault/chatvault/internal/config"
	"github.com/chatvault/chatvault/internal/history"
	"github.com/chatvault/chatvault/internal/llm"
	"github.com/chatvault/chatvault/internal/logger"
	"github.com/chatvault/chatvault/internal/server"
	"github.com/chatvault/chatvault/pkg/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		return
	}
	logger.SetLevel(cfg.LogLevel)

	ctx := context.Background()

	if cfg.History.Backend == config.BackendBigtable {
		if err := history.EnsureBigtableTable(ctx, cfg.History.Bigtable); err != nil {
			logger.L.Error("failed to prepare bigtable table", "error", err)
			return
		}
	}
	store, err := history.NewStore(ctx, cfg.History)
	if err != nil {
		logger.L.Error("failed to initialize history store", "error", err)
		return
	}

	tm := tools.NewManager()
	if cfg.Payman.APISecret != "" {
		tools.RegisterPaymanTools(tm, cfg.Payman)
	}

	var ag *agent.Agent
	if cfg.LLM.APIKey != "" {
		ag = agent.New(llm.NewClient(cfg.LLM), store, tm, cfg.LLM)
	} else {
		logger.L.Warn("no LLM api key configured; /api/chat disabled")
	}

	srv := server.New(store, ag)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.L.Info("starting server", "address", serverAddr, "backend", cfg.History.Backend)
	if err := http.ListenAndServe(serverAddr, srv.Router()); err != nil {
		logger.L.Error("failed to start server", "error", err)
	}
}
