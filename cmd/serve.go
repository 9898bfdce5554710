package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lewsiafat/TradeGuard/internal/config"
	"github.com/Lewsiafat/TradeGuard/internal/infrastructure/ai"
	"github.com/Lewsiafat/TradeGuard/internal/infrastructure/feed"
	"github.com/Lewsiafat/TradeGuard/internal/infrastructure/logger"
	"github.com/Lewsiafat/TradeGuard/internal/infrastructure/storage"
	"github.com/Lewsiafat/TradeGuard/internal/usecase"
	"github.com/Lewsiafat/TradeGuard/internal/web"
)

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "Run the TradeGuard server",
	Long:  `Start the JSON API server with the market data feed attached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCMD.AddCommand(serveCMD)
}

func runServe() error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("init state store: %w", err)
	}
	defer store.Close()

	seed, err := config.LoadChecklistSeed(cfg.Checklist.File)
	if err != nil {
		log.Warn("failed to load checklist seed, using built-in template",
			zap.String("file", cfg.Checklist.File), zap.Error(err))
		seed = nil
	}

	svc := usecase.NewTradeService(store, seed, log)
	if err := svc.Load(context.Background()); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	analyzer := ai.NewGeminiClient(cfg.Gemini.APIKey, log)

	// Price feed: one shared upstream connection, one listener per
	// configured pair that has a spot stream.
	mux := feed.NewMultiplexer(cfg.Market.WSURL, log)
	board := usecase.NewPriceBoard()
	for _, pair := range svc.Pairs() {
		if symbol, ok := usecase.StreamSymbol(pair); ok {
			mux.Subscribe(symbol, board.Observe)
		}
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := mux.Connect(connectCtx); err != nil {
		// Price display degrades, the rest of the tool still works.
		log.Error("market stream unavailable", zap.Error(err))
	}
	cancel()
	defer mux.Disconnect()

	server := web.NewServer(cfg.Server.Port, svc, board, analyzer, log)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-stop

	log.Info("Shutting down...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return server.Shutdown(shutdownCtx)
}
