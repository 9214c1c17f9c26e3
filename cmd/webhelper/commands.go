package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/samvad-hq/samvad-webhelpers/internal/app"
	"github.com/samvad-hq/samvad-webhelpers/internal/config"
	"github.com/samvad-hq/samvad-webhelpers/internal/logger"
	"github.com/samvad-hq/samvad-webhelpers/pkg/cominspect"
	"github.com/spf13/cobra"
)

// Version information, set at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type rootFlags struct {
	configFile string
	logLevel   string
}

// NewRootCommand creates the root command for the webhelper CLI.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "webhelper",
		Short: "Typed JSON HTTP calls with cloud-provider auth headers",
		Long: `webhelper sends JSON requests using Azure, AWS, GCP or custom auth headers,
keeps named header sessions and announces completed calls to configured publishers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log_level")

	cmd.AddCommand(newRequestCommand(flags))
	cmd.AddCommand(newInspectCommand(flags))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

// setup loads config, initializes logging and builds the runner.
func setup(cmd *cobra.Command, flags *rootFlags) (*app.Runner, func(), error) {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	log, err := logger.InitWriter(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	runner, err := app.NewRunner(cmd.Context(), cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err.Error())
		_ = logger.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := runner.Close(); err != nil {
			logger.WarnObj("runner close failed", "error", err.Error())
		}
		_ = logger.Close()
	}
	return runner, cleanup, nil
}

func newRequestCommand(root *rootFlags) *cobra.Command {
	opts := app.RequestOptions{}
	cmd := &cobra.Command{
		Use:   "request METHOD URL",
		Short: "Send a JSON request",
		Example: `  webhelper request GET https://api.example.com/users --query '#.name'
  webhelper request POST /orders --profile shop --data '{"sku":"a"}' -H 'X-Tenant: acme'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Method = strings.ToUpper(args[0])
			opts.URL = args[1]

			runner, cleanup, err := setup(cmd, root)
			if err != nil {
				return err
			}
			defer cleanup()
			return runner.Request(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.Data, "data", "d", "", "JSON request body")
	f.StringArrayVarP(&opts.Headers, "header", "H", nil, "custom header 'Name: value' (repeatable)")
	f.StringVarP(&opts.Profile, "profile", "p", "", "endpoint profile id")
	f.StringVarP(&opts.Session, "session", "s", "", "header session to load and extend")
	f.BoolVar(&opts.AllowFailure, "allow-failure", false, "print non-2xx responses instead of failing")
	f.StringVarP(&opts.Query, "query", "q", "", "gjson path applied to the response body")
	f.Float64Var(&opts.RPS, "rps", 0, "rate limit in requests per second (0 = unlimited)")
	return cmd
}

func newInspectCommand(root *rootFlags) *cobra.Command {
	var depthName string
	cmd := &cobra.Command{
		Use:   "inspect PROGID",
		Short: "Inspect a running COM server (Windows only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			depth, err := cominspect.ParseDepth(depthName)
			if err != nil {
				return err
			}
			runner, cleanup, err := setup(cmd, root)
			if err != nil {
				return err
			}
			defer cleanup()
			return runner.Inspect(args[0], depth, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&depthName, "depth", "type", "inspection depth: type, iid or members")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}
}

func versionString() string {
	return fmt.Sprintf("webhelper %s (commit: %s, built: %s, %s/%s)", Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
