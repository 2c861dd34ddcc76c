package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/taskbench/internal/store"
)

// HistoryResult is the history command payload.
type HistoryResult struct {
	Session     store.Session         `json:"session"`
	Verdicts    []store.VerdictRow    `json:"verdicts"`
	Submissions []store.SubmissionRow `json:"submissions,omitempty"`
}

// SessionsResult is the history --sessions payload.
type SessionsResult struct {
	Sessions []store.Session `json:"sessions"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath      string
		sessionID   string
		taskID      int
		sessions    bool
		submissions bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded verdict transitions",
		Long: `Show the verdict transitions recorded by "taskbench serve".

Without --session the most recent session is shown. --task limits output
to one task and --sessions lists every session instead.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if taskID < 0 {
				msg := fmt.Sprintf("invalid task id %d", taskID)
				_ = newFormatter(rootOpts, cmd).Error(ErrCodeInvalidInput, msg, nil)
				return NewExitError(ExitCommandError, msg)
			}
			return runHistory(rootOpts, historyOptions{
				dbPath:      dbPath,
				sessionID:   sessionID,
				taskID:      taskID,
				sessions:    sessions,
				submissions: submissions,
			}, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "verdict store path (default store.path from config)")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default latest)")
	cmd.Flags().IntVar(&taskID, "task", 0, "only show this task")
	cmd.Flags().BoolVar(&sessions, "sessions", false, "list sessions")
	cmd.Flags().BoolVar(&submissions, "submissions", false, "include submissions")

	return cmd
}

type historyOptions struct {
	dbPath      string
	sessionID   string
	taskID      int
	sessions    bool
	submissions bool
}

func runHistory(opts *RootOptions, h historyOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	if h.dbPath == "" {
		cfg, err := loadConfig(opts)
		if err != nil {
			_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		h.dbPath = cfg.Store.Path
	}
	if h.dbPath == "" {
		msg := "no verdict store configured: pass --db or set store.path"
		_ = formatter.Error(ErrCodeInvalidInput, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	// Open creates missing databases; history must not.
	if _, err := os.Stat(h.dbPath); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("database not found: %s", h.dbPath), nil)
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(h.dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer st.Close()

	if h.sessions {
		list, err := st.ListSessions(ctx)
		if err != nil {
			return storeError(formatter, err)
		}
		return outputSessions(formatter, SessionsResult{Sessions: list})
	}

	var sess store.Session
	if h.sessionID != "" {
		sess, err = st.GetSession(ctx, h.sessionID)
	} else {
		sess, err = st.LatestSession(ctx)
	}
	if err != nil {
		return storeError(formatter, err)
	}
	formatter.VerboseLog("Session %s (%s)", sess.ID, sess.Catalog)

	result := HistoryResult{Session: sess}
	result.Verdicts, err = st.ReadVerdicts(ctx, sess.ID, h.taskID)
	if err != nil {
		return storeError(formatter, err)
	}
	if h.submissions {
		subs, err := st.ReadSubmissions(ctx, sess.ID)
		if err != nil {
			return storeError(formatter, err)
		}
		for _, s := range subs {
			if h.taskID == 0 || s.TaskID == h.taskID {
				result.Submissions = append(result.Submissions, s)
			}
		}
	}

	return outputHistory(formatter, result)
}

func storeError(f *OutputFormatter, err error) error {
	if errors.Is(err, store.ErrSessionNotFound) {
		_ = f.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "session not found", err)
	}
	_ = f.Error(ErrCodeStore, err.Error(), nil)
	return WrapExitError(ExitCommandError, "store error", err)
}

func outputSessions(f *OutputFormatter, r SessionsResult) error {
	if f.Format == "json" {
		return f.Success(r)
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tCATALOG\tSTARTED")
	for _, s := range r.Sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Catalog, s.StartedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func outputHistory(f *OutputFormatter, r HistoryResult) error {
	if f.Format == "json" {
		return f.SuccessWithSession(r, r.Session.ID)
	}

	fmt.Fprintf(f.Writer, "Session %s (%s), started %s\n", r.Session.ID, r.Session.Catalog, r.Session.StartedAt.Format(time.RFC3339))
	if len(r.Verdicts) == 0 {
		fmt.Fprintln(f.Writer, "No verdicts recorded.")
	} else {
		tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tTASK\tRESULT\tMESSAGE")
		for _, v := range r.Verdicts {
			result := "fail"
			if v.Success {
				result = "pass"
			}
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", v.Seq, v.TaskID, result, firstLine(v.Message))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, s := range r.Submissions {
		fmt.Fprintf(f.Writer, "submission %d (task %d): %s\n", s.Seq, s.TaskID, s.Value)
	}
	return nil
}

func firstLine(s string) string {
	if head, _, ok := strings.Cut(s, "\n"); ok {
		return head + " ..."
	}
	return s
}
