package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tradewise-tools/originate/internal/cli"
	"github.com/tradewise-tools/originate/internal/common"
	"github.com/tradewise-tools/originate/internal/engine"
	"github.com/tradewise-tools/originate/internal/ingest"
	"github.com/tradewise-tools/originate/internal/model"
)

func analyzeCmd() *cobra.Command {
	var noSave bool

	cmd := &cobra.Command{
		Use:   "analyze <costing-sheet.csv>",
		Short: "Run the origin determination workflow on a costing sheet",
		Long: `Parses a CSV costing sheet, builds the material ledger, and runs the
seven-step origin determination workflow against the configured FTA rules.
The resulting report is rendered and saved as an analysis session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], noSave)
		},
	}

	cmd.Flags().BoolVar(&noSave, "no-save", false, "render the report without persisting a session")

	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, noSave bool) error {
	ctx := cmd.Context()

	classifier, err := initClassifier()
	if err != nil {
		return err
	}
	repo, err := initRules()
	if err != nil {
		return err
	}
	registry, err := initManufacturers()
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return common.NewUserError("could not open costing sheet, please check your file", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := ingest.NewParser().ParseFile(ctx, f)
	if err != nil {
		return common.NewUserError("could not parse costing sheet, please check your file", err)
	}

	bar := progressbar.NewOptions(len(rows),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Validating material rows..."),
	)
	ledger, rejected, err := model.BuildLedgerWithProgress(rows, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if err != nil {
		if errors.Is(err, common.ErrEmptyLedger) || errors.Is(err, common.ErrZeroCost) {
			return common.NewUserError("no usable material rows in the costing sheet, please check your file", err)
		}
		return err
	}

	for _, rej := range rejected {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("row %d rejected: %s", rej.Index+2, rej.Reason)))
	}

	input := engine.Input{
		Ledger:        ledger,
		ProductHSCode: ingest.ProductHSCode(rows),
		Manufacturer:  ingest.Manufacturer(rows),
	}

	eng := engine.New(classifier, repo, registry, engineConfig())
	report := eng.Analyze(ctx, input)

	fmt.Println(cli.RenderReport(report))

	if noSave {
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	session := &model.AnalysisSession{
		Filename:     filepath.Base(path),
		CreatedAt:    time.Now(),
		Manufacturer: input.Manufacturer,
		FinalHSCode:  input.ProductHSCode,
		Verdict:      report.Verdict,
		Reason:       report.Step(model.StepCount).Rationale,
		Completed:    true,
	}
	if err := store.SaveAnalysis(ctx, session, ledger, rejected, report); err != nil {
		return fmt.Errorf("failed to save analysis session: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Saved analysis session %d", session.ID)))
	return nil
}
