package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-deckgen/pkg/orchestrator"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the layout catalog against the template",
		Long: `Runs the drift check: every catalog layout must resolve in the template,
keep its recorded name and expose every required field key. Exits 1 when
any finding is reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			orch, err := orchestrator.New(cfg, orchestrator.WithLogger(a.logger))
			if err != nil {
				return err
			}
			res, err := orch.Validate(cmd.Context())
			if res != nil && res.Summary != "" {
				fmt.Fprint(cmd.OutOrStdout(), res.Summary)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Template/catalog validation passed.")
			return nil
		},
	}
}

func newRenderCmd(a *app) *cobra.Command {
	var deckPath, runID string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a DeckIR document as delivered",
		Long: `Checks drift, then renders the DeckIR at --deckir into
runs/<run_id>/deck_v1.pptx with its render map. No preflight remediation
is applied; an unknown layout or unresolvable asset aborts the render.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			orch, err := a.orchestrator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			res, err := orch.Render(cmd.Context(), orchestrator.RenderRequest{DeckIRPath: deckPath, RunID: runID})
			printResult(cmd, res)
			return err
		},
	}
	cmd.Flags().StringVar(&deckPath, "deckir", "", "DeckIR JSON path")
	cmd.Flags().StringVar(&runID, "run-id", "", "run id (default: <UTC timestamp>_<random>)")
	_ = cmd.MarkFlagRequired("deckir")
	return cmd
}

func newSmokeCmd(a *app) *cobra.Command {
	var deckPath, runID string
	var confirm bool
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run drift check, preflight and render end to end",
		Long: `Pushes a deck (default: inputs/sample_deck.json) through the whole
pipeline and keeps the before/after DeckIR, the validation report, the
render map and the rendered deck in runs/<run_id>/.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			var options []orchestrator.Option
			if confirm {
				options = append(options, orchestrator.WithConfirm(a.confirmBlocking))
			}
			orch, err := a.orchestrator(cmd.Context(), cfg, options...)
			if err != nil {
				return err
			}
			res, err := orch.Smoke(cmd.Context(), orchestrator.SmokeRequest{DeckIRPath: deckPath, RunID: runID})
			printResult(cmd, res)
			return err
		},
	}
	cmd.Flags().StringVar(&deckPath, "deckir", "", "DeckIR JSON path (default: the project's sample deck)")
	cmd.Flags().StringVar(&runID, "run-id", "", "run id (default: <UTC timestamp>_<random>)")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "ask before rendering when blocking violations remain")
	return cmd
}

func printResult(cmd *cobra.Command, res *orchestrator.Result) {
	if res == nil {
		return
	}
	out := cmd.OutOrStdout()
	if res.Summary != "" {
		fmt.Fprint(out, res.Summary)
		if !strings.HasSuffix(res.Summary, "\n") {
			fmt.Fprintln(out)
		}
	}
	if res.RunDir != "" {
		fmt.Fprintf(out, "Run directory: %s\n", res.RunDir)
	}
	for _, obj := range res.Published {
		fmt.Fprintf(out, "Published %s\n", obj.Location)
	}
}
