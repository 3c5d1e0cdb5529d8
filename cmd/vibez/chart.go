package main

import (
	"fmt"
	"os"

	"vibez-studio/pkg/chartspec"
	"vibez-studio/pkg/vibeapi"

	"github.com/spf13/cobra"
)

func newChartCmd(a *app) *cobra.Command {
	var (
		file      string
		goal      string
		chartType string
		specOut   string
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Recommend a chart for a goal",
		Long:  "Uploads --file (optional; the server falls back to sample data) and asks for a chart matching --goal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := vibeapi.ParseChartType(chartType)
			if err != nil {
				return err
			}

			ws, err := a.workspace(cmd.Context(), file)
			if err != nil {
				return err
			}
			res, err := ws.SubmitPrompt(cmd.Context(), goal, ct)
			if err != nil {
				return err
			}
			a.out.chart(res)

			if specOut == "" {
				return nil
			}
			name, data, err := ws.ChartDownload()
			if err != nil {
				return err
			}
			if specOut == "-" {
				specOut = name
			}
			if err := os.WriteFile(specOut, data, 0o644); err != nil {
				return fmt.Errorf("write chart spec: %w", err)
			}
			a.out.success("Chart spec written to %s", specOut)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV dataset to upload")
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "what the chart should show")
	cmd.Flags().StringVarP(&chartType, "type", "t", string(vibeapi.ChartAuto), fmt.Sprintf("chart type %v", vibeapi.ChartTypes))
	cmd.Flags().StringVarP(&specOut, "spec-out", "o", "", "write the chart spec to this path ('-' for "+chartspec.FileName("<vibe>")+")")
	_ = cmd.MarkFlagRequired("goal")
	return cmd
}

func newInsightsCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Upload a dataset and print its insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace(cmd.Context(), file)
			if err != nil {
				return err
			}
			ws.Wait()
			a.out.insights(ws.Dataset().Insights)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV dataset to upload")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newAskCmd(a *app) *cobra.Command {
	var (
		file      string
		questions []string
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask questions about a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.workspace(cmd.Context(), file)
			if err != nil {
				return err
			}
			for _, q := range append(questions, args...) {
				rec, err := ws.Ask(cmd.Context(), q)
				if err != nil {
					return err
				}
				a.out.answer(rec)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV dataset to upload")
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "question to ask (repeatable)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
