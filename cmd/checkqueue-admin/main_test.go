package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/target/checkqueue/internal/domain/model"
	"github.com/target/checkqueue/internal/migrate"
)

func testContext(stdin string) (*commandContext, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &commandContext{
		Ctx:    context.Background(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Stdout: out,
		Stdin:  strings.NewReader(stdin),
	}, out
}

func TestPrintUsage_ListsEveryCommand(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))
	for name := range commands() {
		assert.Contains(t, buf.String(), name)
	}
}

func TestParseMigrateFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    migrateOptions
		wantErr string
	}{
		{name: "up", args: []string{"up"}, want: migrateOptions{action: "up", steps: 1, timeout: 2 * time.Minute}},
		{
			name: "down all",
			args: []string{"down", "--steps", "0", "--yes"},
			want: migrateOptions{action: "down", steps: 0, timeout: 2 * time.Minute, yes: true},
		},
		{
			name: "version with timeout",
			args: []string{"version", "--timeout", "5s"},
			want: migrateOptions{action: "version", steps: 1, timeout: 5 * time.Second},
		},
		{name: "missing action", args: nil, wantErr: "requires an action"},
		{name: "unknown action", args: []string{"sideways"}, wantErr: "unknown migrate action"},
		{name: "negative steps", args: []string{"down", "--steps", "-2"}, wantErr: "--steps"},
		{name: "bad flag", args: []string{"up", "--force"}, wantErr: "parse migrate flags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMigrateFlags(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "no migrations applied", formatVersion(migrate.Version{None: true}))
	assert.Equal(t, "version 3", formatVersion(migrate.Version{Version: 3}))
	assert.Equal(t, "version 4 (dirty)", formatVersion(migrate.Version{Version: 4, Dirty: true}))
}

func TestParseSkipSlideFlags(t *testing.T) {
	slide := uuid.New()

	opts, err := parseSkipSlideFlags([]string{"-course", "go-basics", "-slide", slide.String(), "-user", "u1"})
	require.NoError(t, err)
	assert.Equal(t, skipSlideOptions{courseID: "go-basics", slideID: slide, userID: "u1"}, opts)

	_, err = parseSkipSlideFlags([]string{"-course", "go-basics", "-slide", slide.String()})
	require.Error(t, err)

	_, err = parseSkipSlideFlags([]string{"-course", "c", "-slide", "not-a-uuid", "-user", "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--slide")
}

func TestHashToken(t *testing.T) {
	t.Run("flag", func(t *testing.T) {
		cmdCtx, out := testContext("")
		require.NoError(t, runHashToken(cmdCtx, []string{"-token", "s3cret", "-cost", "4"}))
		hash := strings.TrimSpace(out.String())
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	})

	t.Run("stdin", func(t *testing.T) {
		cmdCtx, out := testContext("  from-stdin\n")
		require.NoError(t, runHashToken(cmdCtx, []string{"-cost", "4"}))
		hash := strings.TrimSpace(out.String())
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("from-stdin")))
	})

	t.Run("empty", func(t *testing.T) {
		cmdCtx, _ := testContext("\n")
		assert.Error(t, runHashToken(cmdCtx, nil))
	})
}

func TestConfirm(t *testing.T) {
	cmdCtx, _ := testContext("")
	require.NoError(t, cmdCtx.confirm(true, "skip"))

	cmdCtx, out := testContext("Yes\n")
	require.NoError(t, cmdCtx.confirm(false, "Delete?"))
	assert.Contains(t, out.String(), "Delete? Continue? [y/N]")

	cmdCtx, _ = testContext("n\n")
	assert.Error(t, cmdCtx.confirm(false, "Delete?"))

	cmdCtx, _ = testContext("")
	assert.Error(t, cmdCtx.confirm(false, "Delete?"))
}

func TestCacheFlush_RequiresRedis(t *testing.T) {
	cmdCtx, _ := testContext("")
	err := runCacheFlush(cmdCtx, []string{"--yes"})
	assert.ErrorIs(t, err, errRedisNotConfigured)
}

func TestPrintJobs(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	require.NoError(t, printJobs(&buf, nil, now))
	assert.Equal(t, "no waiting jobs\n", buf.String())

	buf.Reset()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, printJobs(&buf, []*model.CheckingJob{
		{ID: 7, SubmissionID: 42, CreatedAt: created},
	}, now))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"JOB", "SUBMISSION", "CREATED", "AGE"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"7", "42", "2026-03-01T12:00:00Z", "5m0s"}, strings.Fields(lines[1]))
}
