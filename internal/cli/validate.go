package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Catalog string `json:"catalog"`
	Tasks   int    `json:"tasks"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [catalog]",
		Short: "Validate a catalog without serving it",
		Long: `Validate a task catalog: YAML structure, unique ids, layouts,
predicate names and submission schemas.

With no argument catalog.path from config is validated, or the built-in
catalog when that is empty. Exits 1 when the
catalog is invalid and 2 when it cannot be read.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	loader, err := newLoader(cfg.Schema.CacheSize)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to create loader", err)
	}

	if path == "" {
		path = cfg.Catalog.Path
	}

	formatter.VerboseLog("Validating catalog %s", catalogLabel(path))
	cat, err := loadCatalog(loader, path)
	if err != nil {
		return catalogError(formatter, err, ExitFailure)
	}

	result := ValidationResult{Valid: true, Catalog: catalogLabel(path), Tasks: cat.Len()}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ Catalog valid (%d tasks)", result.Tasks))
}
