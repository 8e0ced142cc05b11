package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/target/checkqueue/config"
	"github.com/target/checkqueue/internal/bootstrap"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
	// offline commands do not need configuration.
	offline bool
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Stdout io.Writer
	Stdin  io.Reader
}

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Stdout: os.Stdout,
		Stdin:  os.Stdin,
	}
	if !cmd.offline {
		cfg, err := bootstrap.LoadConfig()
		if err != nil {
			logger.ErrorContext(cmdCtx.Ctx, "load config", "error", err)
			os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
		}
		if lvlErr := bootstrap.ApplyLogLevel(cfg.LogLevel); lvlErr != nil {
			logger.Warn("ignoring log level", "error", lvlErr)
		}
		cmdCtx.Config = cfg
	}

	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Manage the schema: migrate up | down [--steps N] | version",
			run:         runMigrate,
		},
		"stats": {
			name:        "stats",
			description: "Print checking job counts per status",
			run:         runStats,
		},
		"list-waiting": {
			name:        "list-waiting",
			description: "List waiting checking jobs, newest first",
			run:         runListWaiting,
		},
		"show-submission": {
			name:        "show-submission",
			description: "Print a submission with its job and texts as JSON",
			run:         runShowSubmission,
		},
		"skip-slide": {
			name:        "skip-slide",
			description: "Mark a slide as skipped for a user so later verdicts score zero",
			run:         runSkipSlide,
		},
		"cache-flush": {
			name:        "cache-flush",
			description: "Delete cached texts from Redis",
			run:         runCacheFlush,
		},
		"hash-token": {
			name:        "hash-token",
			description: "Print the bcrypt hash of an agent token for AGENT_TOKEN_HASHES",
			run:         runHashToken,
			offline:     true,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: checkqueue-admin <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writef(w, "  %-18s %s\n", name, cmds[name].description); err != nil {
			return err
		}
	}
	return nil
}

// confirm asks for a y/yes answer on stdin unless yes is already set.
func (cmdCtx *commandContext) confirm(yes bool, prompt string) error {
	if yes {
		return nil
	}
	if err := writef(cmdCtx.Stdout, "%s Continue? [y/N]: ", prompt); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(cmdCtx.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	resp = strings.ToLower(strings.TrimSpace(resp))
	if resp == "y" || resp == "yes" {
		return nil
	}
	return errors.New("aborted by user")
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
