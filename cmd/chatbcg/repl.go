// ABOUTME: Line-oriented chat loop for terminals without full-screen support
// ABOUTME: Asks block until the reply; uploads run in the background and report when done

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/2389/chatbcg/internal/assistant"
	"github.com/2389/chatbcg/internal/commands"
	"github.com/2389/chatbcg/internal/conversation"
	"github.com/2389/chatbcg/internal/logging"
	"github.com/2389/chatbcg/internal/render"
)

func runREPL(ctx context.Context, in io.Reader, out io.Writer) error {
	a, err := setup(logging.StateFile())
	if err != nil {
		return err
	}
	defer a.Close()

	r := newREPL(a.ctl, out, a.cfg.Upload.AllowedExtensions)
	r.health = a.client.Health
	r.showSources = a.cfg.UI.ShowSources

	color.New(color.FgCyan).Fprintf(out, "chatbcg connected to %s\n", a.cfg.Backend.URL)
	fmt.Fprintln(out, "Type a message and press Enter. End a line with \\ to continue it. /help for commands.")
	fmt.Fprintln(out)

	return r.run(ctx, in)
}

// repl is one interactive line session. Output from background uploads and
// the prompt loop is serialized through mu.
type repl struct {
	ctl      *conversation.Controller
	out      io.Writer
	allowed  []string
	renderer *render.Terminal
	health   func(ctx context.Context) error
	now      func() time.Time

	showSources bool

	mu      sync.Mutex
	uploads sync.WaitGroup
}

func newREPL(ctl *conversation.Controller, out io.Writer, allowed []string) *repl {
	return &repl{
		ctl:      ctl,
		out:      out,
		allowed:  allowed,
		renderer: render.NewTerminal(),
		now:      time.Now,
	}
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *repl) run(ctx context.Context, in io.Reader) error {
	defer r.uploads.Wait()

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 1024*1024) // 1MB max input

	for {
		input, err := r.readMessage(ctx, scanner)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			r.printf("\nGoodbye!\n")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(input) == "" {
			continue
		}

		if commands.IsCommand(input) {
			quit := r.command(ctx, input)
			if quit {
				r.printf("Goodbye!\n")
				return nil
			}
			continue
		}

		r.ask(ctx, input)
	}
}

// readMessage reads one message. A line ending in a backslash continues on
// the next line.
func (r *repl) readMessage(ctx context.Context, scanner *bufio.Scanner) (string, error) {
	var lines []string
	prompt := "> "
	for {
		r.printf("%s", color.GreenString(prompt))

		line, err := scanLine(ctx, scanner)
		if err != nil {
			if errors.Is(err, io.EOF) && len(lines) > 0 {
				return strings.Join(lines, "\n"), nil
			}
			return "", err
		}

		if cont, ok := strings.CutSuffix(line, "\\"); ok {
			lines = append(lines, cont)
			prompt = "... "
			continue
		}
		lines = append(lines, line)
		return strings.Join(lines, "\n"), nil
	}
}

// scanLine reads a line without blocking past ctx cancellation.
func scanLine(ctx context.Context, scanner *bufio.Scanner) (string, error) {
	inputCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		if scanner.Scan() {
			inputCh <- scanner.Text()
			return
		}
		if err := scanner.Err(); err != nil {
			errCh <- err
			return
		}
		errCh <- io.EOF
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		return "", err
	case line := <-inputCh:
		return line, nil
	}
}

// ask sends a message and prints the reply.
func (r *repl) ask(ctx context.Context, text string) {
	r.ctl.SetDraft(text)
	pending, err := r.ctl.StartQuery()
	if err != nil {
		r.printf("%s\n", color.RedString("[error] %v", err))
		return
	}
	if pending == nil {
		return
	}

	stop := r.typing()
	reply := pending.Await(ctx)
	stop()

	r.printReply(reply)
	if answer := pending.Answer(); answer != nil && r.showSources {
		r.mu.Lock()
		printSources(r.out, answer.SourceDocuments)
		r.mu.Unlock()
	}
	r.printf("\n")
}

// typing shows an indicator until the returned func is called.
func (r *repl) typing() func() {
	r.printf("%s", color.New(color.Faint).Sprint("Assistant is typing...\r"))
	return func() {
		r.printf("%s\r", strings.Repeat(" ", len("Assistant is typing...")))
	}
}

func (r *repl) printReply(msg conversation.Message) {
	label := color.New(color.FgGreen, color.Bold).Sprint("Assistant")
	if msg.Content == conversation.AskFailedText || msg.Content == conversation.UploadFailedText {
		r.printf("%s: %s\n", label, color.RedString(msg.Content))
		return
	}
	r.printf("%s: %s\n", label, r.renderer.Render(msg.Content))
}

// command runs a slash command. It reports whether the loop should exit.
func (r *repl) command(ctx context.Context, input string) bool {
	cmd, err := commands.Parse(input)
	if err != nil {
		r.printf("%s\n\n", color.RedString("[error] %v", err))
		return false
	}

	switch cmd.Name {
	case commands.Quit:
		return true
	case commands.Help:
		r.printf("%s\n\n", commands.HelpText())
	case commands.History:
		r.printHistory()
	case commands.Upload:
		r.upload(ctx, cmd.Arg)
	case commands.Transcript:
		r.transcript(cmd.Arg)
	case commands.Health:
		if r.health == nil {
			r.printf("Health check is not available.\n\n")
			return false
		}
		if err := r.health(ctx); err != nil {
			r.printf("%s\n\n", color.RedString("Assistant service unreachable: %v", err))
			return false
		}
		r.printf("%s\n\n", color.GreenString("Assistant service is up."))
	}
	return false
}

// upload starts an upload and reports the outcome when it settles. The
// prompt stays usable meanwhile.
func (r *repl) upload(ctx context.Context, path string) {
	file, err := assistant.ReadFile(path, r.allowed)
	if err != nil {
		r.printf("%s\n\n", color.RedString("[error] %v", err))
		return
	}

	pending, err := r.ctl.StartUpload(file)
	if err != nil {
		r.printf("%s\n\n", color.RedString("[error] %v", err))
		return
	}

	r.printf("Uploading %s...\n\n", file.Name)
	r.uploads.Go(func() {
		reply := pending.Await(ctx)
		r.printf("\n")
		r.printReply(reply)
	})
}

func (r *repl) transcript(path string) {
	if path == "" {
		path = fmt.Sprintf("chatbcg-transcript-%s.html", r.now().Format("20060102-150405"))
	}

	out, err := render.NewTranscript().HTML("Chat-BCG transcript", r.ctl.Store().Snapshot().Messages)
	if err == nil {
		err = os.WriteFile(path, out, 0o644)
	}
	if err != nil {
		r.printf("%s\n\n", color.RedString("[error] saving transcript: %v", err))
		return
	}
	r.printf("Transcript saved to %s\n\n", path)
}

func (r *repl) printHistory() {
	msgs := r.ctl.Store().Snapshot().Messages
	if len(msgs) == 0 {
		r.printf("No messages yet.\n\n")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, strings.Repeat("-", 60))
	for _, m := range msgs {
		prefix := color.GreenString("←")
		if m.Role == conversation.RoleUser {
			prefix = color.BlueString("→")
		}
		fmt.Fprintf(r.out, "%s %s %s\n", m.Timestamp.Format("15:04:05"), prefix, firstLine(m.Content, 200))
	}
	fmt.Fprintln(r.out, strings.Repeat("-", 60))
	fmt.Fprintln(r.out)
}
