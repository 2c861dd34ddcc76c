package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/taskbench/internal/harness"
	"github.com/roach88/taskbench/internal/record"
	"github.com/roach88/taskbench/internal/submission"
)

// CheckResult is the check command payload.
type CheckResult struct {
	TaskID      int    `json:"task_id"`
	Name        string `json:"name"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	Indicator   string `json:"indicator"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		catalogPath string
		submitted   string
	)

	cmd := &cobra.Command{
		Use:   "check <task-id> <record-file>",
		Short: "Grade a saved inspection record offline",
		Long: `Evaluate one task's predicate against a saved inspection record.

The record file holds a JSON or YAML object, as published by a widget.
Use "-" to read it from stdin. --submission applies submitted text the
same way the task page's submission form does.

Exits 0 when the verdict passes, 1 when it fails and 2 on command errors.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sub *string
			if cmd.Flags().Changed("submission") {
				sub = &submitted
			}
			return runCheck(rootOpts, catalogPath, args[0], args[1], sub, cmd)
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog YAML file")
	cmd.Flags().StringVar(&submitted, "submission", "", "submission text to apply before grading")

	return cmd
}

func runCheck(opts *RootOptions, catalogPath, idArg, recordPath string, submitted *string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	id, err := strconv.Atoi(idArg)
	if err != nil || id <= 0 {
		msg := fmt.Sprintf("invalid task id %q", idArg)
		_ = formatter.Error(ErrCodeInvalidInput, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	cat, _, err := openCatalog(opts, formatter, catalogPath)
	if err != nil {
		return err
	}

	desc, ok := cat.Lookup(id)
	if !ok {
		msg := fmt.Sprintf("task %d not found", id)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if !desc.Graded() {
		msg := fmt.Sprintf("task %d has no predicate", id)
		_ = formatter.Error(ErrCodeInvalidInput, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	fields, err := readRecordFile(recordPath, cmd.InOrStdin())
	if err != nil {
		code := ErrCodeRecord
		if errors.Is(err, fs.ErrNotExist) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read record", err)
	}

	rec := record.New()
	rec.Publish(fields)
	if submitted != nil {
		submission.NewChannel(rec).Submit(*submitted)
	}
	snap := rec.Snapshot()

	verdict, err := harness.SafeEvaluate(id, desc.Predicate, snap)
	if err != nil {
		formatter.VerboseLog("predicate error: %v", err)
	}

	result := CheckResult{
		TaskID:    id,
		Name:      desc.Name,
		Success:   verdict.Success,
		Message:   verdict.Message,
		Indicator: verdict.Indicator(),
	}
	if fp, err := snap.Fingerprint(); err == nil {
		result.Fingerprint = fp
	}

	if err := outputCheck(formatter, result); err != nil {
		return err
	}
	if !result.Success {
		return NewExitError(ExitFailure, fmt.Sprintf("task %d failed", id))
	}
	return nil
}

// outputCheck writes the result. In JSON mode a failing verdict is an
// ErrCodeVerdictFail error carrying the result as details.
func outputCheck(f *OutputFormatter, r CheckResult) error {
	if f.Format == "json" {
		if !r.Success {
			msg := fmt.Sprintf("task %d failed", r.TaskID)
			if r.Message != "" {
				msg += ": " + firstLine(r.Message)
			}
			return f.Error(ErrCodeVerdictFail, msg, r)
		}
		return f.Success(r)
	}

	mark, status := "✓", "pass"
	if !r.Success {
		mark, status = "✗", "fail"
	}
	fmt.Fprintf(f.Writer, "%s task %d (%s): %s\n", mark, r.TaskID, r.Name, status)
	if r.Message != "" {
		for _, line := range strings.Split(r.Message, "\n") {
			fmt.Fprintf(f.Writer, "  %s\n", line)
		}
	}
	return nil
}

// readRecordFile decodes a JSON or YAML object. YAML is a superset of
// JSON, so one decoder serves both.
func readRecordFile(path string, stdin io.Reader) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("record %s: %w", path, err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
