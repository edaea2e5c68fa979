// ABOUTME: Interactive chat command hosting a conversation session in the terminal
// ABOUTME: Slash commands stand in for the mobile app's foreground/background transitions
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harper/confidant/internal/core"
	"github.com/harper/confidant/internal/lifecycle"
	"github.com/harper/confidant/internal/models"
)

var chatMetricsAddr string

const chatHelp = `Type a message and press enter. Commands:
  /inactive, /background   leave the app (ends and summarises the session)
  /active, /foreground     come back to the app
  /new                     start a fresh session with a new greeting
  /quit                    end the session and exit (same as Ctrl-D)`

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation.

The assistant greets you, recalling your last conversation if one was
summarised. Leaving the chat, or sending /background, ends the session:
it is summarised and the summary is saved to your profile.

` + chatHelp,
		Example: `  confidant chat
  confidant chat --user ana
  confidant chat --metrics-addr :9090`,
		RunE: runChat,
	}

	cmd.Flags().StringVar(&chatMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	userID, err := resolveUser(a.Config, a.Store)
	if err != nil {
		a.Logger.Warn("continuing without a user, nothing will be remembered", "err", err)
		userID = ""
	}

	if chatMetricsAddr != "" {
		srv := serveMetrics(chatMetricsAddr, a.Metrics.Handler(), a.Logger)
		defer srv.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return chatLoop(ctx, a.Manager, userID, cmd.InOrStdin(), cmd.OutOrStdout(), a.Logger)
}

func serveMetrics(addr string, handler http.Handler, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

// transcriptPrinter prints display turns that have not been shown yet
type transcriptPrinter struct {
	out  io.Writer
	seen int
}

func (p *transcriptPrinter) flush(turns []models.Turn) {
	for _, t := range turns[min(p.seen, len(turns)):] {
		if t.Speaker == models.SpeakerAssistant {
			fmt.Fprintf(p.out, "confidant> %s\n", t.Text)
		}
	}
	p.seen = len(turns)
}

// chatLoop runs one terminal conversation until EOF, /quit or ctx is done.
// The session is always ended on the way out so it gets summarised.
func chatLoop(ctx context.Context, manager *core.SessionManager, userID string, in io.Reader, out io.Writer, logger *log.Logger) error {
	monitor := lifecycle.NewMonitor(manager)
	printer := &transcriptPrinter{out: out}

	// summaries must finish even after Ctrl-C
	endCtx := context.WithoutCancel(ctx)
	observe := func(phase lifecycle.Phase) {
		ev, err := monitor.Observe(endCtx, phase)
		if err != nil {
			logger.Warn("session end incomplete", "err", err)
		}
		logger.Debug("lifecycle", "phase", phase, "event", ev)
		printer.flush(manager.Turns())
	}
	finish := func() error {
		observe(lifecycle.PhaseBackground)
		return nil
	}

	if _, err := manager.StartSession(ctx, userID); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	printer.flush(manager.Turns())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return finish()
		case line, ok := <-lines:
			if !ok {
				return finish()
			}
			line = strings.TrimSpace(line)

			switch strings.ToLower(line) {
			case "":
				continue
			case "/quit", "/exit":
				return finish()
			case "/help":
				fmt.Fprintln(out, chatHelp)
				continue
			case "/new":
				observe(lifecycle.PhaseBackground)
				observe(lifecycle.PhaseActive)
				if _, err := manager.StartSession(ctx, userID); err != nil {
					return fmt.Errorf("starting session: %w", err)
				}
				printer.flush(manager.Turns())
				continue
			}

			if strings.HasPrefix(line, "/") {
				phase, err := lifecycle.ParsePhase(strings.TrimPrefix(line, "/"))
				if err != nil {
					fmt.Fprintf(out, "unknown command %s (try /help)\n", line)
					continue
				}
				observe(phase)
				continue
			}

			_, err := manager.SubmitUserMessage(ctx, line)
			printer.flush(manager.Turns())
			if err != nil && !errors.Is(err, core.ErrStaleReply) {
				fmt.Fprintf(out, "(no reply: %v)\n", err)
			}
		}
	}
}
