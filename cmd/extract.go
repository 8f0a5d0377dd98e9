package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clearline-kyc/sow-cli/internal/loader"
	"github.com/clearline-kyc/sow-cli/internal/model"
)

var (
	extractFile   string
	extractCaseID string
	extractOut    string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract sources of wealth from a single narrative document",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := initPipeline("extract")
		if err != nil {
			return err
		}

		narrative, err := loader.Load(extractFile)
		if err != nil {
			return eris.Wrapf(err, "load narrative %s", extractFile)
		}

		result, err := p.Run(ctx, extractCaseID, narrative)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("extraction complete",
			zap.String("file", extractFile),
			zap.Int("sources", result.Summary.TotalSourcesIdentified),
			zap.Float64("completeness", result.Summary.OverallCompletenessScore),
			zap.Int("follow_ups", len(result.RecommendedFollowUpQuestions)),
		)

		return writeResult(result, extractOut)
	},
}

// writeResult emits the result JSON to a file, or stdout when path is empty.
func writeResult(result *model.ExtractionResult, path string) error {
	if path == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal result")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return eris.Wrapf(err, "write result %s", path)
	}
	return nil
}

func init() {
	extractCmd.Flags().StringVar(&extractFile, "file", "", "narrative document path, .txt or .md (required)")
	extractCmd.Flags().StringVar(&extractCaseID, "case-id", "", "case identifier (generated when empty)")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "output JSON path (stdout when empty)")
	_ = extractCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(extractCmd)
}
