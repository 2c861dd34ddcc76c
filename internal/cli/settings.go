package cli

import (
	"errors"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/taskbench/internal/catalog"
	"github.com/roach88/taskbench/internal/config"
	"github.com/roach88/taskbench/internal/harness"
	"github.com/roach88/taskbench/internal/schema"
)

// BuiltinCatalog labels the embedded catalog in output and store sessions.
const BuiltinCatalog = "builtin"

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// loadConfig resolves .env, the config file and environment overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	return config.Load(config.New(), opts.Config)
}

// newLoader returns a catalog loader with the built-in predicate registry.
func newLoader(cacheSize int) (*catalog.Loader, error) {
	compiler, err := schema.NewCompiler(cacheSize)
	if err != nil {
		return nil, err
	}
	return &catalog.Loader{Registry: catalog.Builtins(), Compiler: compiler}, nil
}

// loadCatalog loads path, or the built-in catalog when path is empty.
func loadCatalog(loader *catalog.Loader, path string) (*harness.Catalog, error) {
	if path == "" {
		return loader.LoadBuiltin()
	}
	return loader.LoadFile(path)
}

func catalogLabel(path string) string {
	if path == "" {
		return BuiltinCatalog
	}
	return path
}

// openCatalog is the common flag/config resolution for commands that read
// a catalog. A non-empty flag wins over catalog.path from config.
func openCatalog(opts *RootOptions, f *OutputFormatter, flagPath string) (*harness.Catalog, string, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		return nil, "", WrapExitError(ExitCommandError, "failed to load config", err)
	}

	path := cfg.Catalog.Path
	if flagPath != "" {
		path = flagPath
	}

	loader, err := newLoader(cfg.Schema.CacheSize)
	if err != nil {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, "", WrapExitError(ExitCommandError, "failed to create loader", err)
	}

	f.VerboseLog("Loading catalog %s", catalogLabel(path))
	cat, err := loadCatalog(loader, path)
	if err != nil {
		return nil, "", catalogError(f, err, ExitCommandError)
	}
	return cat, path, nil
}

// catalogError reports a catalog load failure. Missing files are always a
// command error; invalid content exits with invalidCode.
func catalogError(f *OutputFormatter, err error, invalidCode int) error {
	if errors.Is(err, fs.ErrNotExist) {
		_ = f.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "catalog not found", err)
	}

	var details interface{}
	var ce *catalog.Error
	if errors.As(err, &ce) {
		details = map[string]interface{}{"index": ce.Index, "field": ce.Field}
	}
	_ = f.Error(ErrCodeCatalog, err.Error(), details)
	return WrapExitError(invalidCode, "invalid catalog", err)
}
