package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/planr/internal/board"
	"github.com/sadopc/planr/internal/store"
	"github.com/sadopc/planr/internal/tui"
	"github.com/sirupsen/logrus"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("planr %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := setupLogger(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	s, err := store.New(dbPath)
	if err != nil {
		log.WithError(err).Error("failed to open database")
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()
	s.SetLogger(log)

	b := board.Open(s, log)
	if err := b.Err(); err != nil {
		log.WithError(err).Warn("some collections failed to load")
	}
	log.WithField("db", dbPath).Info("planr started")

	app := tui.NewApp(b, s)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		log.WithError(err).Error("ui exited with error")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger writes text logs to $PLANR_LOG or planr.log next to the
// database. The terminal belongs to the UI.
func setupLogger(dbPath string) (*logrus.Entry, func(), error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	level := logrus.InfoLevel
	if v := os.Getenv("PLANR_LOG_LEVEL"); v != "" {
		l, err := logrus.ParseLevel(v)
		if err != nil {
			return nil, nil, err
		}
		level = l
	}
	log.SetLevel(level)

	path := os.Getenv("PLANR_LOG")
	if path == "" {
		path = filepath.Join(filepath.Dir(dbPath), "planr.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log.SetOutput(f)
	return logrus.NewEntry(log), func() { f.Close() }, nil
}
