// ABOUTME: Entry point for the parley conversation reconciliation CLI
// ABOUTME: Replays event logs, renders reconciled views, and manages history

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/parley/internal/config"
	"github.com/2389/parley/internal/event"
	"github.com/2389/parley/internal/feed"
	"github.com/2389/parley/internal/history"
	"github.com/2389/parley/internal/timeline"
	"github.com/2389/parley/internal/transcript"
)

// Version is set by goreleaser at build time.
var version = "dev"

// getConfigPath returns the path to the parley config file.
// Priority: PARLEY_CONFIG env var > XDG_CONFIG_HOME/parley/config.yaml > ~/.config/parley/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("PARLEY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "parley", "config.yaml")
}

// getDataPath returns the path to the parley data directory.
// Priority: XDG_DATA_HOME/parley > ~/.local/share/parley
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "parley")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: parley <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  render <events.jsonl>            Replay an event log and print the reconciled view")
		fmt.Println("  export <events.jsonl> [-o FILE]  Export a replayed conversation as HTML or text")
		fmt.Println("  import <events.jsonl>            Replay an event log into the history database")
		fmt.Println("  history                          List archived conversations")
		fmt.Println("  history <conversation-id>        Render an archived conversation")
		fmt.Println("  init                             Create a default config file")
		fmt.Println("  version                          Print version")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "render":
		err = runRender(ctx)
	case "export":
		err = runExport(ctx)
	case "import":
		err = runImport(ctx)
	case "history":
		err = runHistory(ctx)
	case "init":
		err = runInit()
	case "version":
		fmt.Println(version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file if one exists, otherwise returns defaults.
// Commands that only replay a local event log should not demand a config.
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &config.Config{
			History: config.HistoryConfig{
				Path: filepath.Join(getDataPath(), "history.db"),
			},
		}, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", configPath, err)
	}
	return cfg, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(&colorHandler{level: level})
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Fprint(os.Stderr, buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

// readEvents decodes a JSONL event log. Blank lines are skipped; decode
// failures abort with the offending line number.
func readEvents(path string) ([]*event.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close()

	var events []*event.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev, err := event.Decode([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}

	return events, nil
}

// findRoot picks the conversation root from an event log: the first complete
// message with no parent.
func findRoot(events []*event.Event) (string, error) {
	for _, ev := range events {
		if ev.Kind == event.KindMessage && ev.ParentID == "" && ev.ID != "" {
			return ev.ID, nil
		}
	}
	return "", fmt.Errorf("event log contains no root message")
}

// replay feeds an event log through a mailbox loop and returns the loop for
// inspection. The returned cancel stops the loop.
func replay(ctx context.Context, cfg *config.Config, logger *slog.Logger, events []*event.Event, archive feed.Archiver) (*feed.Loop, context.CancelFunc, error) {
	root, err := findRoot(events)
	if err != nil {
		return nil, nil, err
	}

	st := timeline.NewWithOptions(root, cfg.Engine.TimelineOptions(), logger)
	loop := feed.NewLoop(st, feed.LoopConfig{
		BufferSize:   cfg.Feed.BufferSize,
		DedupeWindow: cfg.Feed.DedupeWindow,
		DedupeSize:   cfg.Feed.DedupeMaxSize,
		Archive:      archive,
	}, logger)

	loopCtx, cancel := context.WithCancel(ctx)
	go loop.Run(loopCtx)

	if err := loop.Replay(ctx, events); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("replaying events: %w", err)
	}

	return loop, cancel, nil
}

func runRender(ctx context.Context) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: parley render <events.jsonl>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	events, err := readEvents(os.Args[2])
	if err != nil {
		return err
	}

	loop, cancel, err := replay(ctx, cfg, logger, events, nil)
	if err != nil {
		return err
	}
	defer cancel()

	view, err := loop.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading view: %w", err)
	}

	printView(view)
	return nil
}

func runExport(ctx context.Context) error {
	args := os.Args[2:]
	var eventPath, outPath string
	format := "html"

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-o" || arg == "--output":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", arg)
			}
			outPath = args[i+1]
			i++
		case arg == "--format" || arg == "-f":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a value", arg)
			}
			format = args[i+1]
			i++
		case strings.HasPrefix(arg, "--format="):
			format = strings.TrimPrefix(arg, "--format=")
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			if eventPath != "" {
				return fmt.Errorf("unexpected argument: %s", arg)
			}
			eventPath = arg
		}
	}

	if eventPath == "" {
		return fmt.Errorf("usage: parley export <events.jsonl> [--format html|text] [-o FILE]")
	}
	if format != "html" && format != "text" {
		return fmt.Errorf("unknown format %q (want html or text)", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	events, err := readEvents(eventPath)
	if err != nil {
		return err
	}

	loop, cancel, err := replay(ctx, cfg, logger, events, nil)
	if err != nil {
		return err
	}
	defer cancel()

	view, err := loop.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading view: %w", err)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	title := strings.TrimSuffix(filepath.Base(eventPath), filepath.Ext(eventPath))
	if format == "text" {
		return transcript.WriteText(out, view)
	}
	return transcript.WriteHTML(out, title, view)
}

func runImport(ctx context.Context) error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: parley import <events.jsonl>")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	events, err := readEvents(os.Args[2])
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	loop, cancel, err := replay(ctx, cfg, logger, events, store)
	if err != nil {
		return err
	}
	defer cancel()

	view, err := loop.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading view: %w", err)
	}

	finalized := 0
	for _, m := range view {
		if !m.Streaming {
			finalized++
		}
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Imported %d events (%d messages) into %s\n", len(events), finalized, cfg.History.Path)
	return nil
}

func runHistory(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	if len(os.Args) < 3 {
		return listConversations(ctx, store)
	}
	return showConversation(ctx, store, cfg, os.Args[2])
}

func listConversations(ctx context.Context, store *history.Store) error {
	convs, err := store.ListConversations(ctx)
	if err != nil {
		return fmt.Errorf("listing conversations: %w", err)
	}

	if len(convs) == 0 {
		fmt.Println("No archived conversations.")
		return nil
	}

	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	for _, c := range convs {
		cyan.Print(c.ID)
		gray.Printf("  %d messages, updated %s\n", c.MessageCount, c.UpdatedAt.Local().Format(time.RFC822))
	}
	return nil
}

func showConversation(ctx context.Context, store *history.Store, cfg *config.Config, conversationID string) error {
	logger := setupLogger(cfg.Logging)

	st := timeline.NewWithOptions(conversationID, cfg.Engine.TimelineOptions(), logger)
	if err := store.Replay(ctx, conversationID, st); err != nil {
		return fmt.Errorf("replaying conversation: %w", err)
	}

	printView(st.DisplayMessages())
	return nil
}

// printView renders the reconciled display projection to the terminal.
func printView(view []timeline.DisplayMessage) {
	if len(view) == 0 {
		fmt.Println("(empty conversation)")
		return
	}

	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	magenta := color.New(color.FgMagenta)

	for _, m := range view {
		cyan.Print(m.Author)
		gray.Printf("  %s", m.CreatedAt.Local().Format("15:04:05"))
		switch {
		case m.Streaming:
			magenta.Print("  ● typing")
		case m.Status == timeline.StatusPending:
			yellow.Print("  ○ sending")
		case m.Status == timeline.StatusFailed:
			red.Print("  ✗ failed")
		}
		fmt.Println()

		for _, line := range strings.Split(m.Content, "\n") {
			fmt.Printf("  %s\n", line)
		}

		if m.NestedReplyCount > 0 {
			noun := "replies"
			if m.NestedReplyCount == 1 {
				noun = "reply"
			}
			gray.Printf("  └ %d %s", m.NestedReplyCount, noun)
			if len(m.NestedReplyAuthors) > 0 {
				gray.Printf(" from %s", strings.Join(m.NestedReplyAuthors, ", "))
			}
			fmt.Println()
		}
		fmt.Println()
	}
}

func runInit() error {
	configPath := getConfigPath()
	dataPath := getDataPath()
	dbPath := filepath.Join(dataPath, "history.db")

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config already exists: %s", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	configContent := fmt.Sprintf(`# parley configuration
# Generated by parley init

history:
  path: "%s"

engine:
  delta_overwrite: "last_write_wins"
  orphan_replies: "show"

feed:
  dedupe_window: "5m"
  dedupe_max_size: 4096
  buffer_size: 64

logging:
  level: "info"
  format: "text"
`, dbPath)

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("✓ Created config: %s\n", configPath)
	green.Printf("✓ Data directory: %s\n", dataPath)
	return nil
}
