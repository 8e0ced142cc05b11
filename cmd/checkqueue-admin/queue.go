package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/target/checkqueue/internal/data"
	"github.com/target/checkqueue/internal/domain/model"
	"github.com/target/checkqueue/internal/util"
)

const defaultCommandTimeout = 30 * time.Second

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func runStats(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("stats")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse stats flags: %w", err)
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		stats, err := data.NewSubmissionRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}).Stats(ctx)
		if err != nil {
			return err
		}
		if *asJSON {
			return writeJSON(cmdCtx.Stdout, stats)
		}
		return writef(cmdCtx.Stdout, "waiting: %d\nrunning: %d\ndone:    %d\n",
			stats.Waiting, stats.Running, stats.Done)
	})
}

func runListWaiting(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("list-waiting")
	limit := fs.Int("limit", 50, "maximum number of jobs")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse list-waiting flags: %w", err)
	}
	if *limit <= 0 {
		return errors.New("--limit must be positive")
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		jobs, err := data.NewSubmissionRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}).ListWaiting(ctx, *limit)
		if err != nil {
			return err
		}
		return printJobs(cmdCtx.Stdout, jobs, time.Now())
	})
}

func printJobs(w io.Writer, jobs []*model.CheckingJob, now time.Time) error {
	if len(jobs) == 0 {
		return writeln(w, "no waiting jobs")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "JOB\tSUBMISSION\tCREATED\tAGE"); err != nil {
		return err
	}
	for _, j := range jobs {
		created := j.CreatedAt.UTC().Format(time.RFC3339)
		if err := writef(tw, "%d\t%d\t%s\t%s\n", j.ID, j.SubmissionID, created, util.FormatAge(now, j.CreatedAt)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runShowSubmission(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("show-submission")
	id := fs.Int64("id", 0, "submission id")
	withCode := fs.Bool("code", false, "include the submitted code")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse show-submission flags: %w", err)
	}
	if *id <= 0 {
		return errors.New("--id is required")
	}

	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		sub, err := data.NewSubmissionRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}).FindSubmission(ctx, *id, *withCode)
		if err != nil {
			return err
		}
		return writeJSON(cmdCtx.Stdout, sub)
	})
}

type skipSlideOptions struct {
	courseID string
	slideID  uuid.UUID
	userID   string
}

func parseSkipSlideFlags(args []string) (skipSlideOptions, error) {
	fs := newFlagSet("skip-slide")
	course := fs.String("course", "", "course id")
	slide := fs.String("slide", "", "slide id (uuid)")
	user := fs.String("user", "", "user id")
	if err := fs.Parse(args); err != nil {
		return skipSlideOptions{}, fmt.Errorf("parse skip-slide flags: %w", err)
	}

	opts := skipSlideOptions{
		courseID: strings.TrimSpace(*course),
		userID:   strings.TrimSpace(*user),
	}
	if opts.courseID == "" || opts.userID == "" {
		return skipSlideOptions{}, errors.New("--course and --user are required")
	}
	slideID, err := uuid.Parse(strings.TrimSpace(*slide))
	if err != nil {
		return skipSlideOptions{}, fmt.Errorf("invalid --slide: %w", err)
	}
	opts.slideID = slideID
	return opts, nil
}

func runSkipSlide(cmdCtx *commandContext, args []string) error {
	opts, err := parseSkipSlideFlags(args)
	if err != nil {
		return err
	}
	return withDatabase(cmdCtx, defaultCommandTimeout, func(ctx context.Context, db *sql.DB) error {
		if err := data.NewSkipRepo(db).Skip(ctx, opts.courseID, opts.slideID, opts.userID); err != nil {
			return err
		}
		return writef(cmdCtx.Stdout, "slide %s skipped for %s in %s\n", opts.slideID, opts.userID, opts.courseID)
	})
}

func runCacheFlush(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("cache-flush")
	yes := fs.Bool("yes", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse cache-flush flags: %w", err)
	}
	if err := cmdCtx.confirm(*yes, "Deleting every cached text."); err != nil {
		return err
	}

	return withRedis(cmdCtx, defaultCommandTimeout, func(ctx context.Context, client redis.UniversalClient) error {
		n, err := data.NewRedisCacheRepo(client).DeletePrefix(ctx, data.TextCacheKeyPrefix)
		if err != nil {
			return fmt.Errorf("flush text cache: %w", err)
		}
		return writef(cmdCtx.Stdout, "deleted %d cached texts\n", n)
	})
}

func runHashToken(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("hash-token")
	token := fs.String("token", "", "agent token; read from stdin when empty")
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse hash-token flags: %w", err)
	}

	plain := *token
	if plain == "" {
		raw, err := io.ReadAll(io.LimitReader(cmdCtx.Stdin, 4096))
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		plain = string(raw)
	}
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return errors.New("token is empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), *cost)
	if err != nil {
		return fmt.Errorf("hash token: %w", err)
	}
	return writeln(cmdCtx.Stdout, string(hash))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
