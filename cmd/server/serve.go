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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/blues/ivs/internal/chain"
	"github.com/blues/ivs/internal/config"
	"github.com/blues/ivs/internal/engine"
	"github.com/blues/ivs/internal/event"
	"github.com/blues/ivs/internal/logger"
	"github.com/blues/ivs/internal/logic"
	"github.com/blues/ivs/internal/metrics"
	"github.com/blues/ivs/internal/repository"
	"github.com/blues/ivs/internal/router"
	"github.com/blues/ivs/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, event workers and phase scheduler",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func serveRun(cmd *cobra.Command, _ []string) error {
	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		return err
	}

	// 时间戳来源：启用链时取最新区块时间
	var entropy engine.EntropySource = engine.ClockEntropy{}
	var chainClient *chain.Client
	if cfg.Chain.Enabled {
		chainClient, err = chain.Dial(cfg.Chain)
		if err != nil {
			return fmt.Errorf("failed to initialize chain client: %w", err)
		}
		defer chainClient.Close()
		entropy = chainClient
	}

	codec, err := chain.NewCodec()
	if err != nil {
		return err
	}
	m := metrics.Voting()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	voting, err := logic.NewVotingLogic(ctx, logic.VotingOptions{
		Admin:   cfg.Engine.AdminAddress(),
		Pool:    cfg.Engine.PoolAddress(),
		Store:   repository.NewStore(db),
		Entropy: entropy,
		Codec:   codec,
		Metrics: m,
	})
	if err != nil {
		return err
	}

	// 事件处理
	manager := event.NewProcessorManager(
		event.NewAuditProcessor(m),
		event.NewPhaseProcessor(m),
		event.NewContributeProcessor(m),
	)
	dispatcher, err := event.NewDispatcher(cfg.Event.Workers, manager, logic.NewEventLogic(db), m)
	if err != nil {
		return err
	}
	defer dispatcher.Release()
	voting.SetSink(dispatcher)

	// 启动定时任务
	if cfg.Scheduler.Enabled {
		jobs, err := scheduler.NewManager(cfg, voting, dispatcher)
		if err != nil {
			return err
		}
		jobs.Start()
		defer jobs.Stop()
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := router.Options{DB: db, Voting: voting, Metrics: m, Server: cfg.Server}
	if chainClient != nil {
		opts.Chain = chainClient
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Setup(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
