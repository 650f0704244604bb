package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/programme-lv/arena/arena"
	"github.com/programme-lv/arena/arenaapi"
	"github.com/programme-lv/arena/auth"
	"github.com/programme-lv/arena/autosave"
	"github.com/programme-lv/arena/conf"
	"github.com/programme-lv/arena/logger"
	"github.com/programme-lv/arena/submission"
)

func main() {
	contestID := flag.String("contest", "", "contest id")
	virtual := flag.Bool("virtual", false, "start a virtual (replay) attempt")
	configPath := flag.String("config", filepath.Join(conf.DefaultDir(), "arena.toml"), "config file")
	logout := flag.Bool("logout", false, "forget stored credentials and exit")
	flag.Parse()

	cfg, err := conf.LoadClient(*configPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
		fmt.Printf("Error creating log directory: %v\n", err)
		os.Exit(1)
	}
	log, logFile, err := logger.NewFileLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(log)

	creds := auth.NewFileStore(cfg.CredentialsPath)
	if *logout {
		if err := creds.Clear(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Signed out.")
		return
	}

	if *contestID == "" {
		fmt.Println("Please provide a contest id using the -contest flag.")
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	client, err := arenaapi.NewClient(cfg.APIURL, creds, arenaapi.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	drafts, err := autosave.Open(ctx, cfg.Autosave, autosave.OpenOptions{S3Region: cfg.S3Region})
	if err != nil {
		log.Warn("autosave disabled", "error", err)
		drafts, _ = autosave.Open(ctx, "off", autosave.OpenOptions{})
	}
	defer drafts.Close()

	deps := arena.Deps{
		API:              client,
		Drafts:           drafts,
		AutosaveInterval: cfg.AutosaveInterval,
	}
	m := initialModel(ctx, client, deps, arena.BootstrapParams{
		ContestID: *contestID,
		Virtual:   *virtual,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		log.Error("ui stopped", "error", err)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if fm, ok := final.(model); ok && fm.session != nil {
		finish(ctx, fm.session, cfg.RequestTimeout)
	}
}

// finish lets an in-flight submit settle before the process exits, then
// closes the session. A zero limit waits for as long as the submit takes.
func finish(ctx context.Context, s *arena.Session, limit time.Duration) {
	log := logger.FromContext(s.Context())
	if s.State() == submission.StateSubmitting {
		fmt.Println("Waiting for the submission to complete...")
		waitSettled(s.State, limit, 100*time.Millisecond)
	}
	switch s.State() {
	case submission.StateSubmitted:
		fmt.Println("Answers submitted.")
	case submission.StateSubmitting:
		log.Warn("exiting with submission still in flight")
		fmt.Println("The submission did not finish; your draft is kept.")
	}
	if err := s.Close(ctx); err != nil {
		log.Warn("failed to close session", "error", err)
	}
}

// waitSettled polls state until it leaves submitting or limit passes.
// It reports whether the submit settled.
func waitSettled(state func() submission.State, limit, poll time.Duration) bool {
	var deadline time.Time
	if limit > 0 {
		deadline = time.Now().Add(limit)
	}
	for state() == submission.StateSubmitting {
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(poll)
	}
	return true
}
