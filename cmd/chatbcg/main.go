// ABOUTME: Entry point for chatbcg, a terminal client for the Chat-BCG assistant
// ABOUTME: Subcommands for the full-screen chat, a line REPL, and one-shot ask/upload

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"

	"github.com/2389/chatbcg/internal/assistant"
	"github.com/2389/chatbcg/internal/config"
	"github.com/2389/chatbcg/internal/conversation"
	"github.com/2389/chatbcg/internal/logging"
	"github.com/2389/chatbcg/internal/render"
	"github.com/2389/chatbcg/internal/tui"
)

// version is set by goreleaser at build time.
var version = "dev"

const banner = `
      _           _       _
  ___| |__   __ _| |_    | |__   ___ __ _
 / __| '_ \ / _' | __|___| '_ \ / __/ _' |
| (__| | | | (_| | ||_____| |_) | (_| (_| |
 \___|_| |_|\__,_|\__|    |_.__/ \___\__, |
                                     |___/
`

func main() {
	cmd := "chat"
	var args []string
	if len(os.Args) > 1 {
		cmd = os.Args[1]
		args = os.Args[2:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd {
	case "chat":
		err = runChat(ctx)
	case "repl":
		err = runREPL(ctx, os.Stdin, os.Stdout)
	case "ask":
		err = runAsk(ctx, args)
	case "upload":
		err = runUpload(ctx, args)
	case "health":
		err = runHealth(ctx)
	case "ingest-repo":
		err = runIngestRepo(ctx, args)
	case "version", "--version":
		fmt.Printf("chatbcg %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: chatbcg [command] [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  chat                    Full-screen chat (default)")
	fmt.Println("  repl                    Line-oriented chat for plain terminals")
	fmt.Println("  ask <question>          Ask one question and print the answer")
	fmt.Println("  upload <path>           Upload one document for ingestion")
	fmt.Println("  ingest-repo <path>      Ingest a directory that lives on the server")
	fmt.Println("  health                  Check the assistant service")
	fmt.Println("  version                 Print the version")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  BACKEND_URL             Assistant service URL (default: " + config.DefaultBackendURL + ")")
	fmt.Println("  (a .env file in the working directory is read first)")
	fmt.Println("  CHATBCG_CONFIG          Config file path (default: ~/.config/chatbcg/config.yaml)")
	fmt.Println("  CHATBCG_TIMEOUT         Per-request timeout, e.g. 60s (default: none)")
	fmt.Println("  CHATBCG_MAX_UPLOAD_MB   Upload size limit in MB (default: 10)")
	fmt.Println("  CHATBCG_LOG_LEVEL       debug, info, warn, or error")
	fmt.Println("  CHATBCG_LOG_FILE        Write logs to this file")
	fmt.Println()
}

// app holds everything one session needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	client *assistant.Client
	store  *conversation.Store
	ctl    *conversation.Controller
}

// setup loads configuration and wires the session. When logFile is set and
// the config names no log file, logs go there instead of stderr so they do
// not disturb interactive output.
func setup(logFile string) (*app, error) {
	dotenv, err := config.LoadDotEnv(config.DefaultDotEnvFile)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, closer, err := logging.Open(cfg.Logging, logFile)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	slog.SetDefault(logger)

	client := assistant.NewClient(cfg.Backend.URL,
		assistant.WithTimeout(cfg.Backend.Timeout),
		assistant.WithMaxUploadSize(cfg.Upload.MaxUploadBytes()),
		assistant.WithLogger(logger),
	)

	store := conversation.NewStore(logger)
	ctl := conversation.NewController(store, client, logger)

	logger.Debug("session started", "backend", cfg.Backend.URL, "version", version, "dotenv", dotenv)

	return &app{
		cfg:    cfg,
		logger: logger,
		closer: closer,
		client: client,
		store:  store,
		ctl:    ctl,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	_ = a.closer.Close()
}

func runChat(ctx context.Context) error {
	a, err := setup(logging.StateFile())
	if err != nil {
		return err
	}
	defer a.Close()

	model := tui.New(ctx, a.ctl, tui.Options{
		AllowedExtensions: a.cfg.Upload.AllowedExtensions,
		Health:            a.client.Health,
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if a.cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running chat: %w", err)
	}
	return nil
}

func runAsk(ctx context.Context, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("usage: chatbcg ask <question>")
	}

	a, err := setup("")
	if err != nil {
		return err
	}
	defer a.Close()

	a.ctl.SetDraft(question)
	pending, err := a.ctl.StartQuery()
	if err != nil || pending == nil {
		return err
	}
	reply := pending.Await(ctx)

	answer := pending.Answer()
	if answer == nil {
		return errors.New(reply.Content)
	}

	fmt.Println(render.NewTerminal().Render(reply.Content))
	if a.cfg.UI.ShowSources {
		printSources(os.Stdout, answer.SourceDocuments)
	}
	return nil
}

func runUpload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: chatbcg upload <path>")
	}

	a, err := setup("")
	if err != nil {
		return err
	}
	defer a.Close()

	file, err := assistant.ReadFile(args[0], a.cfg.Upload.AllowedExtensions)
	if err != nil {
		return err
	}

	pending, err := a.ctl.StartUpload(file)
	if err != nil {
		return err
	}
	reply := pending.Await(ctx)

	ack := pending.Ack()
	if ack == nil {
		return errors.New(reply.Content)
	}

	color.Green("%s\n", reply.Content)
	if ack.Message != "" {
		color.New(color.Faint).Printf("  %s\n", ack.Message)
	}
	return nil
}

func runHealth(ctx context.Context) error {
	a, err := setup("")
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Checking %s... ", a.cfg.Backend.URL)
	if err := a.client.Health(ctx); err != nil {
		color.Red("UNREACHABLE\n")
		return err
	}
	color.Green("ok\n")
	return nil
}

func runIngestRepo(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: chatbcg ingest-repo <path>")
	}

	a, err := setup("")
	if err != nil {
		return err
	}
	defer a.Close()

	ack, err := a.client.ProcessRepository(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", args[0], err)
	}
	color.Green("%s\n", ack.Message)
	return nil
}

func printSources(w io.Writer, sources []string) {
	if len(sources) == 0 {
		return
	}
	dim := color.New(color.Faint)
	dim.Fprintln(w, "\nSources:")
	for i, s := range sources {
		dim.Fprintf(w, "  [%d] %s\n", i+1, firstLine(s, 100))
	}
}

// firstLine returns the first line of s, cut to at most n runes.
func firstLine(s string, n int) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
