package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Lewsiafat/TradeGuard/internal/config"
	"github.com/Lewsiafat/TradeGuard/internal/infrastructure/logger"
	"github.com/Lewsiafat/TradeGuard/internal/infrastructure/storage"
	"github.com/Lewsiafat/TradeGuard/internal/usecase"
)

var exportOut string

var exportCMD = &cobra.Command{
	Use:   "export",
	Short: "Export all state as a JSON document",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()

		raw, err := svc.ExportJSON()
		if err != nil {
			return err
		}
		if exportOut == "" || exportOut == "-" {
			fmt.Println(string(raw))
			return nil
		}
		return os.WriteFile(exportOut, raw, 0o644)
	},
}

var importCMD = &cobra.Command{
	Use:   "import <file>",
	Short: "Import state from an exported JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		svc, cleanup, err := openService()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := svc.ImportJSON(context.Background(), raw); err != nil {
			return err
		}
		fmt.Println("import complete")
		return nil
	},
}

func init() {
	exportCMD.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")
	rootCMD.AddCommand(exportCMD)
	rootCMD.AddCommand(importCMD)
}

// openService loads config and state for the one-shot transfer commands.
func openService() (*usecase.TradeService, func(), error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := storage.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init state store: %w", err)
	}

	svc := usecase.NewTradeService(store, nil, log)
	if err := svc.Load(context.Background()); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("load state: %w", err)
	}

	cleanup := func() {
		store.Close()
		log.Sync()
	}
	return svc, cleanup, nil
}
