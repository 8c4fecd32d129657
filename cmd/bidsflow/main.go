package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bidsflow/bidsflow/internal/bids"
	"github.com/bidsflow/bidsflow/internal/config"
	"github.com/bidsflow/bidsflow/internal/launcher"
	"github.com/bidsflow/bidsflow/internal/layout"
	"github.com/bidsflow/bidsflow/internal/models"
	"github.com/bidsflow/bidsflow/internal/resolver"
	"github.com/bidsflow/bidsflow/internal/runspec"
	"github.com/bidsflow/bidsflow/internal/tracker"
)

const usage = `usage: bidsflow <command> [-settings dir] <run.yaml>

commands:
  resolve   print the resolved invocation descriptor for one subject/session
  run       resolve and launch the pipeline for every subject/session
  track     check pipeline completion and write the status table
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	settingsDir := fs.String("settings", "", "directory containing settings.toml")
	fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
	specPath := fs.Arg(0)

	// Setup context with manual signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	defer func() {
		signal.Stop(sigChan)
		cancel()
	}()

	go func() {
		sig := <-sigChan
		slog.Info("interrupt received, shutting down gracefully...", "signal", sig)
		cancel()
	}()

	if err := run(ctx, command, specPath, *settingsDir); err != nil {
		slog.Error("command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command, specPath, settingsDir string) error {
	spec, err := runspec.Load(specPath)
	if err != nil {
		return err
	}

	settings := config.DefaultSettings()
	if settingsDir != "" {
		settings, err = config.LoadSettings(os.DirFS(settingsDir))
		if err != nil {
			return err
		}
	}

	setupLogging(spec.LogLevel, settings.LogLevel)

	cfg, err := loadConfig(ctx, spec.ConfigPath)
	if err != nil {
		return err
	}

	lay := layout.New(spec.DatasetRoot)

	switch command {
	case "resolve":
		return commandResolve(cfg, spec, lay)
	case "run":
		return commandRun(ctx, cfg, spec, settings, lay)
	case "track":
		return commandTrack(ctx, cfg, spec, lay)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func loadConfig(ctx context.Context, path string) (*models.GlobalConfig, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return config.LoadFromURL(ctx, path)
	}
	return config.LoadFromPath(path)
}

func setupLogging(specLevel, settingsLevel string) {
	level := settingsLevel
	if specLevel != "" {
		level = specLevel
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel,
	})))
}

func commandResolve(cfg *models.GlobalConfig, spec runspec.RunSpec, lay layout.Layout) error {
	if len(spec.Participants) == 0 {
		return fmt.Errorf("run spec: 'participants' is required")
	}
	sessions := sessionLabels(spec, cfg)
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions in run spec or config")
	}

	runCtx := buildContext(spec, lay, spec.Participants[0], sessions[0])
	descriptor, err := resolver.Resolve(cfg, spec.Kind, spec.Pipeline, spec.Version, spec.Stage, runCtx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding descriptor: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func commandRun(ctx context.Context, cfg *models.GlobalConfig, spec runspec.RunSpec, settings config.Settings, lay layout.Layout) error {
	if len(spec.Participants) == 0 {
		return fmt.Errorf("run spec: 'participants' is required")
	}
	sessions := sessionLabels(spec, cfg)
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions in run spec or config")
	}

	command := settings.ContainerCommand
	if command == "" {
		command = cfg.ContainerConfig.Command
	}

	l := &launcher.Launcher{
		Command:        command,
		ContainerStore: settings.ContainerStore,
		LogDir:         lay.Logs(),
		DryRun:         spec.DryRun || settings.DryRun,
	}
	if !l.DryRun {
		if err := os.MkdirAll(l.LogDir, 0755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
	}

	for _, participant := range spec.Participants {
		for _, session := range sessions {
			runCtx := buildContext(spec, lay, participant, session)
			descriptor, err := resolver.Resolve(cfg, spec.Kind, spec.Pipeline, spec.Version, spec.Stage, runCtx)
			if err != nil {
				return err
			}
			if err := l.Run(ctx, descriptor); err != nil {
				return err
			}
		}
	}
	return nil
}

func commandTrack(ctx context.Context, cfg *models.GlobalConfig, spec runspec.RunSpec, lay layout.Layout) error {
	if len(spec.Participants) == 0 {
		return fmt.Errorf("run spec: 'participants' is required")
	}
	sessions := sessionLabels(spec, cfg)
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions in run spec or config")
	}

	t := &tracker.Tracker{
		Config:      cfg,
		Layout:      lay,
		Kind:        spec.Kind,
		Pipeline:    spec.Pipeline,
		Version:     spec.Version,
		Stage:       spec.Stage,
		ExtraVars:   spec.TemplateVars,
		Concurrency: spec.NConcurrent,
	}

	records, err := t.Run(ctx, spec.Participants, sessions)
	if err != nil {
		return err
	}

	statusPath := lay.StatusTable()
	if err := os.MkdirAll(filepath.Dir(statusPath), 0755); err != nil {
		return fmt.Errorf("creating derivatives directory: %w", err)
	}
	f, err := os.Create(statusPath)
	if err != nil {
		return fmt.Errorf("creating status table: %w", err)
	}
	defer f.Close()

	if err := tracker.WriteCSV(f, records); err != nil {
		return err
	}

	complete := 0
	for _, record := range records {
		allOK := true
		for _, status := range record.Statuses {
			if status != tracker.StatusSuccess {
				allOK = false
				break
			}
		}
		if allOK {
			complete++
		}
	}

	fmt.Printf("\nPipeline: %s %s\n", spec.Pipeline, spec.Version)
	fmt.Printf("Checked: %d\n", len(records))
	fmt.Printf("Complete: %d\n", complete)
	fmt.Printf("Status table: %s\n", statusPath)
	return nil
}

func sessionLabels(spec runspec.RunSpec, cfg *models.GlobalConfig) []string {
	if len(spec.Sessions) > 0 {
		return spec.Sessions
	}
	return cfg.Sessions
}

func buildContext(spec runspec.RunSpec, lay layout.Layout, participant, session string) resolver.Context {
	return resolver.Context{
		BidsID:      bids.ParticipantToBidsID(participant),
		Session:     bids.SessionToBids(session),
		DatasetRoot: spec.DatasetRoot,
		Layout:      &lay,
		Extra:       spec.TemplateVars,
	}
}
