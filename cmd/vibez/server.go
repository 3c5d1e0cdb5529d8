package main

import (
	"fmt"
	"os"

	"vibez-studio/pkg/vibeapi"

	"github.com/spf13/cobra"
)

func newFeedbackCmd(a *app) *cobra.Command {
	var fb vibeapi.Feedback

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Correct the vibe predicted for a goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			receipt, err := a.client.SubmitFeedback(cmd.Context(), fb)
			if err != nil {
				return err
			}
			a.out.success("Feedback recorded: %q %s → %s", receipt.Prompt, receipt.Predicted, receipt.CorrectedTo)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fb.Prompt, "goal", "g", "", "the goal that was submitted")
	cmd.Flags().StringVar(&fb.PredictedVibe, "predicted", "", "the vibe the server picked")
	cmd.Flags().StringVar(&fb.CorrectVibe, "correct", "", "the vibe it should have picked")
	_ = cmd.MarkFlagRequired("goal")
	_ = cmd.MarkFlagRequired("correct")
	return cmd
}

func newRetrainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "retrain",
		Short: "Retrain the vibe classifier with recorded feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.Retrain(cmd.Context())
			if err != nil {
				return err
			}
			a.out.success("%s", res.Message)
			a.out.field("status", res.Status)
			if res.NewAccuracy != "" {
				a.out.field("accuracy", res.NewAccuracy)
			}
			return nil
		},
	}
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the chart API is up",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			a.out.success("%s is %s", a.settings.APIURL, res.Status)
			return nil
		},
	}
}

func newFilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage uploaded datasets",
	}

	var out string
	download := &cobra.Command{
		Use:   "download HANDLE",
		Short: "Download an uploaded dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.client.DownloadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write dataset: %w", err)
			}
			a.out.success("Saved %d bytes to %s", len(data), out)
			return nil
		},
	}
	download.Flags().StringVarP(&out, "output", "o", "", "write to this path instead of stdout")

	remove := &cobra.Command{
		Use:   "delete HANDLE",
		Short: "Delete an uploaded dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.DeleteFile(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.out.success("Deleted %s", args[0])
			return nil
		},
	}

	cmd.AddCommand(download, remove)
	return cmd
}
