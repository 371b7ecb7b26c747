package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/optiframe/optiframe/internal/cli"
	"github.com/optiframe/optiframe/internal/config"
	"github.com/optiframe/optiframe/internal/inventory"
	"github.com/optiframe/optiframe/internal/logging"
	"github.com/optiframe/optiframe/internal/store"
)

const usage = `Usage: optiframe <command>

Commands:
  init-db [--drop]  create the frames schema (--drop recreates it)
  add               interactively add a frame
  search            interactively search the inventory
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()
	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	engine := inventory.NewEngine(st, cfg.Export.MaxRows)

	switch os.Args[1] {
	case "init-db":
		drop := len(os.Args) > 2 && os.Args[2] == "--drop"
		if err := st.Bootstrap(ctx, drop); err != nil {
			slog.Error("schema bootstrap failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("Database ready.")

	case "add":
		if err := cli.RunAdd(ctx, engine, os.Stdin, os.Stdout); err != nil {
			slog.Error("add failed", "error", err)
			os.Exit(1)
		}

	case "search":
		if err := cli.RunSearch(ctx, engine, os.Stdin, os.Stdout); err != nil {
			slog.Error("search failed", "error", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}
