package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"cogitator/internal/commands"
	"cogitator/internal/config"
	"cogitator/internal/ratelimit"
	"cogitator/internal/shell"
	"cogitator/internal/status"
	"cogitator/internal/telegram"
	"cogitator/internal/tui"
)

const clearSequence = "\033[H\033[2J"

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:   "cogitator",
		Short: "Consult the machine spirit from your terminal",
		Long: `cogitator is a chat shell for an OpenRouter-backed machine spirit.

Free text is sent to the model under the active personality. Lines starting
with / run one of the built-in sacred protocols: todos, logs, notes,
reminders, system readings, text rites and more. Type /help for the list.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), logLevel)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	root.AddCommand(
		&cobra.Command{
			Use:   "tui",
			Short: "Open the interactive terminal (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runTUI(cmd.Context(), logLevel)
			},
		},
		&cobra.Command{
			Use:   "exec <line>",
			Short: "Run a single line and print the reply",
			Example: `  cogitator exec /todo add Clean the armory
  cogitator exec "what is the Omnissiah?"`,
			Args: cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runExec(cmd.Context(), logLevel, strings.Join(args, " "), cmd.OutOrStdout(), cmd.ErrOrStderr())
			},
		},
		&cobra.Command{
			Use:   "chat",
			Short: "Line-by-line shell on stdin and stdout",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runChat(cmd.Context(), logLevel, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
			},
		},
		&cobra.Command{
			Use:   "telegram",
			Short: "Bridge a private Telegram chat to the shell",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runTelegram(cmd.Context(), logLevel, cmd.ErrOrStderr())
			},
		},
		newConfigCmd(&logLevel),
	)
	return root
}

func newConfigCmd(logLevel *string) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change the persisted profile",
	}
	cfgCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the profile without the API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				profiles, err := loadProfiles(*logLevel, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				p := profiles.Current()
				out, _ := json.MarshalIndent(struct {
					Path        string `json:"path"`
					Personality string `json:"personality"`
					Model       string `json:"model"`
					APIKeySet   bool   `json:"apiKeySet"`
				}{profiles.Path(), p.Personality, p.Model, p.OpenRouterAPIKey != ""}, "", "  ")
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			},
		},
		&cobra.Command{
			Use:     "set <key> <value>",
			Short:   "Set personality, model or apikey",
			Example: "  cogitator config set personality helpful",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				profiles, err := loadProfiles(*logLevel, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				if _, err := profiles.Update(func(p *config.Profile) error {
					return p.Set(args[0], args[1])
				}); err != nil {
					return fmt.Errorf("set %s: %w", args[0], err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.\n", strings.ToLower(args[0]))
				return err
			},
		},
	)
	return cfgCmd
}

func levelOr(flag, env string) string {
	if flag != "" {
		return flag
	}
	return env
}

func bootstrap(ctx context.Context, logLevel string, logs io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := setupLogger(levelOr(logLevel, cfg.Log.Level), logs)
	return openApp(ctx, cfg, logger)
}

func loadProfiles(logLevel string, logs io.Writer) (*config.ProfileStore, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return openProfiles(cfg, setupLogger(levelOr(logLevel, cfg.Log.Level), logs))
}

// supervise starts the config watcher and, when an address is set, the
// status server. Both stop with ctx.
func (a *app) supervise(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		return a.profiles.Watch(ctx, func(p config.Profile) {
			a.logger.Info().Str("personality", p.Personality).Str("model", p.Model).Msg("profile changed on disk")
		})
	})
	if a.cfg.Status.ListenAddr == "" {
		return
	}
	g.Go(func() error {
		return status.Serve(ctx, status.Config{
			Addr:        a.cfg.Status.ListenAddr,
			HealthPath:  a.cfg.Status.HealthPath,
			MetricsPath: a.cfg.Status.MetricsPath,
			Profiles:    a.profiles,
			Records:     a.store,
			Logger:      a.logger,
		})
	})
}

func runTUI(ctx context.Context, logLevel string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logFile, err := openLogFile(cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := setupLogger(levelOr(logLevel, cfg.Log.Level), logFile)

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()
	a.supervise(runCtx, g)
	g.Go(func() error {
		defer stop()
		return tui.Run(runCtx, tui.Config{Session: a.newSession(), Profiles: a.profiles, Logger: logger})
	})
	return g.Wait()
}

func runExec(ctx context.Context, logLevel, line string, stdout, stderr io.Writer) error {
	a, err := bootstrap(ctx, logLevel, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.newSession().Execute(ctx, line)
	switch {
	case shell.IsClear(res):
		return nil
	case !res.Success:
		fmt.Fprintln(stderr, res.Message)
		return errLineFailed
	}
	_, err = fmt.Fprintln(stdout, res.Message)
	return err
}

func runChat(ctx context.Context, logLevel string, stdin io.Reader, stdout, stderr io.Writer) error {
	a, err := bootstrap(ctx, logLevel, stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	return chatLoop(ctx, a.newSession(), stdin, stdout)
}

type executor interface {
	Execute(ctx context.Context, line string) commands.Result
}

// chatLoop reads lines until EOF, exit or quit.
func chatLoop(ctx context.Context, sess executor, stdin io.Reader, stdout io.Writer) error {
	fmt.Fprintln(stdout, "COGITATOR ONLINE. Type /help for the sacred protocols, exit to leave.")
	sc := bufio.NewScanner(stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(stdout, "⚙ > ")
		if !sc.Scan() {
			fmt.Fprintln(stdout)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		res := sess.Execute(ctx, line)
		switch {
		case shell.IsClear(res):
			fmt.Fprint(stdout, clearSequence)
		case res.Success:
			fmt.Fprintf(stdout, "\n⚙️ MACHINE SPIRIT\n%s\n\n", res.Message)
		default:
			fmt.Fprintf(stdout, "\n💀 SERVO SKULL\n%s\n\n", res.Message)
		}
	}
}

func runTelegram(ctx context.Context, logLevel string, stderr io.Writer) error {
	a, err := bootstrap(ctx, logLevel, stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	var dedupe telegram.Deduplicator
	if a.redis != nil {
		dedupe = ratelimit.NewUpdateDeduplicator(a.redis, a.cfg.Redis.UpdateTTL)
	}
	svc, err := telegram.NewService(telegram.Config{
		Token:         a.cfg.Telegram.Token,
		AllowedUserID: a.cfg.Telegram.AllowedUserID,
		NewSession: func(userID int64) telegram.Executor {
			a.logger.Info().Int64("user_id", userID).Msg("telegram session opened")
			return a.newSession()
		},
		Dedupe:      dedupe,
		Logger:      a.logger.With().Str("component", "telegram").Logger(),
		Metrics:     a.metrics,
		LineTimeout: 2 * a.cfg.Chat.Timeout,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	a.supervise(gctx, g)
	g.Go(func() error { return svc.Run(gctx) })
	err = g.Wait()
	a.logger.Info().Msg("stopped")
	return err
}
