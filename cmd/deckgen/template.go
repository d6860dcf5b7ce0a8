package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-deckgen/internal/config"
	"github.com/goliatone/go-deckgen/pkg/catalog"
	"github.com/goliatone/go-deckgen/pkg/orchestrator"
	"github.com/goliatone/go-deckgen/pkg/pptx"
)

func (a *app) openTemplate() (*config.Config, *pptx.Presentation, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Require(config.InputTemplate); err != nil {
		return nil, nil, err
	}
	pres, err := pptx.Open(cfg.TemplatePath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pres, nil
}

func newInspectCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the template's masters, layouts and placeholders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pres, err := a.openTemplate()
			if err != nil {
				return err
			}
			info, err := pres.Inspect()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			engine, err := orchestrator.NewReportEngine(cfg)
			if err != nil {
				return err
			}
			_, err = engine.Template(info, cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	return cmd
}

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Layout catalog tools",
	}
	cmd.AddCommand(newCatalogGenerateCmd(a))
	return cmd
}

func newCatalogGenerateCmd(a *app) *cobra.Command {
	var allLayouts bool
	var output string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Derive the layout catalog from an annotated template",
		Long: `Walks every layout of the template, lists its keyed placeholders and
estimates capacity constraints from placeholder geometry. Only the known
layouts are included unless --all-layouts is set. Use --output - to print
the catalog instead of writing it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pres, err := a.openTemplate()
			if err != nil {
				return err
			}
			cat, err := catalog.Generate(pres, catalog.GenerateOptions{
				AllLayouts:   allLayouts,
				TemplateName: filepath.Base(cfg.TemplatePath),
			})
			if err != nil {
				return err
			}

			if output == "-" {
				data, err := cat.Marshal("json")
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			target := output
			if target == "" {
				target = cfg.LayoutCatalogPath
			}
			if err := cat.Save(target); err != nil {
				return err
			}
			a.logger.Info("catalog generated", zap.String("path", target), zap.Int("layouts", len(cat.Layouts)))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d layouts to %s\n", len(cat.Layouts), target)
			return nil
		},
	}
	cmd.Flags().BoolVar(&allLayouts, "all-layouts", false, "include layouts outside the known set")
	cmd.Flags().StringVarP(&output, "output", "o", "", "catalog path (default: the project's layout catalog; - for stdout)")
	return cmd
}

func newAnnotateCmd(a *app) *cobra.Command {
	var dryRun, noBackup, allLayouts, overwrite bool
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Write stable field keys into the template's layout placeholders",
		Long: `Assigns a field key (ph_title, ph_body, ph_body_left, ph_col1, ph_image, ...)
to every layout placeholder that lacks one, ordered by position. The
template is rewritten in place after a timestamped backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, pres, err := a.openTemplate()
			if err != nil {
				return err
			}
			assignments, err := catalog.Annotate(pres, catalog.AnnotateOptions{
				DryRun:    dryRun,
				MVPOnly:   !allLayouts,
				Overwrite: overwrite,
			})
			if err != nil {
				return err
			}
			printAssignments(cmd.OutOrStdout(), assignments)
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "Dry run: template not modified.")
				return nil
			}

			if !noBackup {
				backup, err := backupFile(cfg.TemplatePath, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", backup)
			}
			if err := pres.Save(cfg.TemplatePath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Annotated %s\n", cfg.TemplatePath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report assignments without writing the template")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "skip the timestamped backup")
	cmd.Flags().BoolVar(&allLayouts, "all-layouts", false, "annotate every layout, not only the known ones")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace field keys that are already set")
	return cmd
}

func printAssignments(out io.Writer, assignments []catalog.Assignment) {
	for _, as := range assignments {
		state := "set"
		if as.Kept {
			state = "kept"
		}
		fmt.Fprintf(out, "%-4s %s [%d/%d] %s (%s) -> %s\n",
			state, as.LayoutName, as.MasterIndex, as.LayoutIndex, as.ShapeName, as.Type, as.FieldKey)
	}
}

func backupFile(path string, at time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	ext := filepath.Ext(path)
	backup := fmt.Sprintf("%s.%s.bak%s", path[:len(path)-len(ext)], at.UTC().Format("20060102T150405Z"), ext)
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", err
	}
	return backup, nil
}
