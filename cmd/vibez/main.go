package main

import (
	"context"
	"os"
	"path/filepath"

	"vibez-studio/internal/pkg/logger"
	"vibez-studio/pkg/vibeapi"
	"vibez-studio/pkg/workspace"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var Version = "dev"

// app holds what every subcommand needs once flags are parsed.
type app struct {
	settings Settings
	client   *vibeapi.Client
	log      logger.ILogger
	out      *printer
}

func newRootCmd() *cobra.Command {
	var (
		a          app
		configPath string
		apiURL     string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:           "vibez",
		Short:         "Vibez Studio chart recommendations from the command line",
		Long:          "vibez uploads CSV datasets to the Vibez chart API, asks for chart recommendations, and explores dataset insights.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := LoadSettings(configPath, os.Getenv)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-url") {
				s.APIURL = apiURL
			}
			a.settings = s
			a.client = vibeapi.NewClient(s.APIURL, s.Timeout)
			a.log = logger.NewConsoleLogger(verbose)
			a.out = newPrinter(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a vibez YAML config file")
	cmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "chart API base URL (overrides VIBEZ_API_BASE_URL)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log workspace activity to stderr")

	cmd.AddCommand(newChartCmd(&a))
	cmd.AddCommand(newInsightsCmd(&a))
	cmd.AddCommand(newAskCmd(&a))
	cmd.AddCommand(newFeedbackCmd(&a))
	cmd.AddCommand(newRetrainCmd(&a))
	cmd.AddCommand(newHealthCmd(&a))
	cmd.AddCommand(newFilesCmd(&a))
	return cmd
}

// workspace opens a local workspace and, when file is set, uploads it.
func (a *app) workspace(ctx context.Context, file string) (*workspace.Workspace, error) {
	ws := workspace.New(a.client, a.log)
	if file == "" {
		return ws, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	up, err := ws.Upload(ctx, filepath.Base(file), f)
	if err != nil {
		return nil, err
	}
	a.out.dataset(up)
	return ws, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		newPrinter(cmd.ErrOrStderr()).failure(err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
