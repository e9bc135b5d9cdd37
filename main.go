package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/liftlog/internal/config"
	"github.com/sadopc/liftlog/internal/export"
	"github.com/sadopc/liftlog/internal/logging"
	"github.com/sadopc/liftlog/internal/store"
	"github.com/sadopc/liftlog/internal/tui"
	"github.com/sadopc/liftlog/internal/workout"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: user config dir)")
	format := flag.String("export", "", "export all sets as csv or json and exit")
	out := flag.String("out", "", "export file path (default: export dir from config)")
	flag.Parse()

	if err := run(*configPath, *format, *out); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, format, out string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, closeLog, err := logging.Setup(cfg.LoggingParams())
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closeLog()

	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()
	log.WithField("path", cfg.Database.Path).Info("database opened")

	if format != "" {
		if out == "" {
			name := fmt.Sprintf("liftlog-export-%s.%s", time.Now().Format(time.DateOnly), format)
			out = filepath.Join(cfg.Export.Dir, name)
		}
		d, err := export.Collect(context.Background(), s, store.SetFilter{})
		if err != nil {
			return err
		}
		if err := export.Write(format, d, out); err != nil {
			return err
		}
		fmt.Printf("Exported %d sets to %s\n", len(d.Sets), out)
		return nil
	}

	engine := workout.New(s, workout.WithLogger(log))
	changes, unsubscribe := s.Subscribe()
	defer unsubscribe()

	app := tui.NewApp(engine, tui.Options{
		Changes:   changes,
		ExportDir: cfg.Export.Dir,
		Logger:    log,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
