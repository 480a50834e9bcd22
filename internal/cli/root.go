// Package cli implements the krishi command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/krishi/internal/config"
	"github.com/mesh-intelligence/krishi/internal/logging"
	"github.com/mesh-intelligence/krishi/internal/paths"
	"github.com/mesh-intelligence/krishi/pkg/krishi"
	"github.com/mesh-intelligence/krishi/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	debug     bool
}

// app is the state shared by one command tree: global flags and the
// settings loaded before any subcommand runs.
type app struct {
	flags     rootFlags
	configDir string
	settings  config.Settings
}

// NewRootCmd creates the top-level "krishi" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "krishi",
		Short: "KrishiSevak farming assistant client",
		Long: "krishi keeps the farmer profile, land holdings, crops and preferences in a\n" +
			"local database and talks to the KrishiSevak assistant and weather services.",
		Version:           krishi.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: per-user config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVar(&a.flags.debug, "debug", false, "log debug output to stderr")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newOnboardCmd(a),
		newProfileCmd(a),
		newLandCmd(a),
		newCropCmd(a),
		newPrefsCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newChatCmd(a),
		newClassifyCmd(a),
		newVoiceCmd(a),
		newTTSCmd(a),
		newWeatherCmd(a),
		newHealthCmd(a),
		newStatusCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "krishi:", err)
		os.Exit(exitCode(err))
	}
}

// load reads .env and config.yaml and configures logging.
func (a *app) load(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return sysError(err)
	}
	dir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	s, err := config.Load(dir)
	if err != nil {
		return sysError(err)
	}
	a.configDir = dir
	a.settings = s
	logging.Init(cmd.ErrOrStderr(), s.Debug || a.flags.debug)
	return nil
}

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func userError(err error) error { return &ExitError{Code: exitUserError, Err: err} }
func sysError(err error) error  { return &ExitError{Code: exitSysError, Err: err} }

// usagef reports bad command input.
func usagef(format string, args ...any) error {
	return userError(fmt.Errorf(format, args...))
}

// userErrors are the sentinels caused by what the user asked for rather
// than by the environment.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrInvalidData,
	types.ErrUnknownPreference,
	types.ErrNotOnboarded,
	types.ErrMissingField,
	types.ErrInvalidFilter,
}

// exitCode maps err to a process exit code. Errors cobra raises for bad
// flags or arguments carry no code and count as user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return exitUserError
}

// run adapts a command body so that any error it returns carries an exit
// code: sentinel user errors map to 1, everything else to 2.
func run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		var ee *ExitError
		if errors.As(err, &ee) {
			return err
		}
		for _, u := range userErrors {
			if errors.Is(err, u) {
				return userError(err)
			}
		}
		return sysError(err)
	}
}
