package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time with -ldflags "-X .../internal/cmd.Version=...".
var Version = "1.0.0"

// Exit codes.
const (
	ExitOK    = 0
	ExitFatal = 1
	ExitUsage = 2
)

const envPrefix = "IISFILTER"

// usageError marks a malformed command line. It is answered with the help
// text and ExitUsage.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// Execute runs the CLI with the process arguments and exits.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Run executes one invocation and returns its exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	// At least one filter is expected; a bare invocation is a usage error,
	// unlike an explicit request for help.
	if len(args) == 0 {
		_ = root.Help()
		return ExitUsage
	}
	if len(args) == 1 && args[0] == "/?" {
		args = []string{"--help"}
	}
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(stderr, "Error:", ue.err)
		_ = root.Help()
		return ExitUsage
	}
	return ExitFatal
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "iisfilter",
		Short: "Filter IIS (W3C extended) logs by latency and uri-stem",
		Long: `iisfilter streams an IIS log in W3C extended format from a file or stdin and
writes the requests that pass its filters to stdout, one line at a time.

The three filters are cascaded:

    Level 1: time-taken. Entries whose time-taken is greater than or equal
    to --time-taken (default 0) move on to the next level.

    Level 2: exclusion. An entry whose cs-uri-stem contains any exclusion
    term is dropped. Otherwise it is printed when no inclusion terms are set,
    or moves on to the next level.

    Level 3: inclusion. An entry whose cs-uri-stem contains at least one
    inclusion term is printed once; the others are dropped.

Input is lowercased before matching, so output lines are lowercase too.
Comment lines (starting with #) are always passed through. Data lines seen
before the first #Fields: header are dropped.

The #Fields: header must list date time cs-method cs-uri-stem cs-uri-query
cs-username c-ip sc-status sc-substatus sc-win32-status time-taken in this
order; recognized columns are mapped to fields by position, not by name.

Flags may also be set in a config file (default $HOME/.iisfilter.yaml or
./.iisfilter.yaml) or through IISFILTER_* environment variables, for
example IISFILTER_TIME_TAKEN=5000.`,
		Example: `  iisfilter -f u_ex131231.log -t 5000 -x "itemservices.aspx console.asmx" -i "console"
  iisfilter -f u_ex131231.log -i "inventoryrule postevent"
  iisfilter -f u_ex131231.log -t 10000 -x "altiris/ns/agent" > u_ex131231_10000ms.log
  iisfilter -f "logs/**/u_ex*.log.gz" -t 2000 -s
  cat u_ex131231.log | iisfilter -t 1000`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &usageError{fmt.Errorf("unexpected argument %q", args[0])}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cmd, v); err != nil {
				return err
			}
			return runFilter(cmd, v)
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate("{{.Name}} version {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	f := root.Flags()
	f.SortFlags = false
	f.StringArrayP("file", "f", nil, "IIS log file or glob pattern to read (default: stdin); may be repeated")
	f.IntP("time-taken", "t", 0, "minimum time-taken in milliseconds")
	f.StringArrayP("exclusion-filter", "x", nil, "space-separated uri-stem terms to exclude; blank terms are ignored, so \"\" leaves the filter unset")
	f.StringArrayP("inclusion-filter", "i", nil, "space-separated uri-stem terms to include; blank terms are ignored, so \"\" leaves the filter unset")
	f.BoolP("short", "s", false, "print only the recognized fields")
	f.StringP("output", "o", "text", "output format: text, json")
	f.Bool("follow", false, "keep reading the file as it grows (single file only)")
	f.Bool("stats", false, "print a summary to stderr when done")
	f.StringP("config", "c", "", "config file (default: $HOME/.iisfilter.yaml)")
	f.String("log-level", "warn", "diagnostics level: debug, info, warn, error")
	f.Bool("log-json", false, "write diagnostics as JSON")

	// Registered up front so a bare invocation's help lists them too.
	root.InitDefaultHelpFlag()
	root.InitDefaultVersionFlag()

	return root
}

// initConfig layers flags over environment variables over the config file.
func initConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".iisfilter")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return &usageError{fmt.Errorf("config: %w", err)}
		}
	}
	return nil
}
