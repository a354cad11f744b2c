package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/beautycare/backend/internal/domain"
	"github.com/beautycare/backend/internal/infrastructure/catalog"
	"github.com/beautycare/backend/internal/infrastructure/shade"
	"github.com/beautycare/backend/internal/usecase"
)

// errCheckFailed marks a check that ran but did not pass
var errCheckFailed = errors.New("check failed")

type options struct {
	catalogPath   string
	shadeMap      string
	shadeNeighbor string
	partnerCode   string
	redirectBase  string
	verbose       bool
	asJSON        bool
}

// env holds what every subcommand loads
type env struct {
	shades  *shade.Normalizer
	catalog *catalog.Store
}

func (o *options) load(ctx context.Context) (*env, error) {
	if o.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	shades, err := shade.NewNormalizer(o.shadeMap, o.shadeNeighbor)
	if err != nil {
		return nil, err
	}
	store := catalog.NewStore(o.catalogPath, shades)
	if err := store.Reload(ctx); err != nil {
		return nil, err
	}
	return &env{shades: shades, catalog: store}, nil
}

func (o *options) selector(e *env) *usecase.Selector {
	return usecase.NewSelector(e.catalog, e.shades, nil, usecase.SelectorConfig{
		PartnerCode:  o.partnerCode,
		RedirectBase: o.redirectBase,
		Weights:      usecase.DefaultWeights(),
	})
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "catalogctl",
		Short:        "Validate the product catalog and audit what selections would produce",
		SilenceUsage: true,
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.catalogPath, "catalog", "data/catalog.yaml", "catalog file (YAML or JSON)")
	flags.StringVar(&opts.shadeMap, "shade-map", "", "shade_map.json (built-in defaults when empty)")
	flags.StringVar(&opts.shadeNeighbor, "shade-neighbors", "", "shade_neighbors.json (built-in defaults when empty)")
	flags.StringVar(&opts.partnerCode, "partner", os.Getenv("BEAUTYCARE_PARTNER_PARTNER_CODE"), "affiliate partner code")
	flags.StringVar(&opts.redirectBase, "redirect-base", os.Getenv("BEAUTYCARE_PARTNER_REDIRECT_BASE"), "redirect prefix for affiliate links")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	flags.BoolVar(&opts.asJSON, "json", false, "print machine-readable JSON")

	root.AddCommand(
		newValidateCmd(opts),
		newCoverageCmd(opts),
		newAuditLinksCmd(opts),
		newShadeCmd(opts),
	)
	return root
}

// CategoryCount is one row of the validate report
type CategoryCount struct {
	Category   domain.Category `json:"category"`
	Products   int             `json:"products"`
	InStock    int             `json:"in_stock"`
	Selectable int             `json:"selectable"`
}

// ValidateReport summarizes a catalog load
type ValidateReport struct {
	Path       string          `json:"path"`
	Version    uint64          `json:"version"`
	Products   int             `json:"products"`
	Categories []CategoryCount `json:"categories"`
	Empty      []string        `json:"empty_slots,omitempty"`
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the catalog and report products per slot category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			report := buildValidateReport(e.catalog)
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "catalog %s: %d products (version %d)\n\n", report.Path, report.Products, report.Version)
			fmt.Fprintln(w, "CATEGORY\tPRODUCTS\tIN STOCK\tSELECTABLE")
			for _, c := range report.Categories {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", c.Category, c.Products, c.InStock, c.Selectable)
			}
			if len(report.Empty) > 0 {
				fmt.Fprintf(w, "\nno selectable products for: %v\n", report.Empty)
			}
			return w.Flush()
		},
	}
}

func buildValidateReport(store *catalog.Store) ValidateReport {
	snap := store.Snapshot()
	resolver := usecase.NewSourceResolver()
	report := ValidateReport{Path: store.Path(), Version: snap.Version(), Products: len(snap.All())}

	seen := make(map[domain.Category]bool)
	for _, layout := range domain.SelectionLayout {
		for _, slot := range layout.Slots {
			if seen[slot] {
				continue
			}
			seen[slot] = true

			row := CategoryCount{Category: slot}
			for _, p := range snap.ByCategory(slot) {
				row.Products++
				if resolver.Available(p) {
					row.InStock++
				}
				if src, ok := resolver.Resolve(p); ok && src.URL != "" {
					row.Selectable++
				}
			}
			if row.Selectable == 0 {
				report.Empty = append(report.Empty, string(slot))
			}
			report.Categories = append(report.Categories, row)
		}
	}
	return report
}

func newCoverageCmd(opts *options) *cobra.Command {
	var minRatio float64

	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Run the selector over every questionnaire outcome and report slot coverage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			report, err := usecase.AnalyzeCoverage(cmd.Context(), opts.selector(e))
			if err != nil {
				return err
			}

			if opts.asJSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "samples: %d makeup, %d skincare\n\n", report.MakeupProfiles, report.SkincareProfiles)
				fmt.Fprintln(w, "SECTION\tSLOT\tCOVERED\tFALLBACKS\tRATIO")
				for _, s := range report.Slots {
					fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\t%.0f%%\n", s.Section, s.Slot, s.Covered, s.Profiles, s.Fallbacks, s.Ratio*100)
				}
				fmt.Fprintf(w, "\noverall: %.1f%%\n", report.Overall*100)
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if report.Overall < minRatio {
				return fmt.Errorf("%w: overall coverage %.2f below %.2f", errCheckFailed, report.Overall, minRatio)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&minRatio, "min-ratio", 0, "fail when overall coverage is below this ratio (0..1)")
	return cmd
}

func newAuditLinksCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "audit-links",
		Short: "Check that every link a selection would emit carries the partner tag",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.partnerCode == "" {
				return fmt.Errorf("%w: --partner is required", domain.ErrInvalidRequest)
			}
			e, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}

			report, err := auditLinks(cmd.Context(), opts.selector(e))
			if err != nil {
				return err
			}

			if opts.asJSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "links: %d  valid: %d  missing: %d  broken: %d  rate: %.1f%%  expected tag: %s\n",
					report.Total, report.Valid, report.Missing, report.Broken, report.Rate, report.ExpectedTag)
				for _, issue := range report.Issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
				fmt.Fprintln(out, report.Status)
			}

			if report.Status != usecase.ReportPass {
				return fmt.Errorf("%w: affiliate audit %s", errCheckFailed, report.Status)
			}
			return nil
		},
	}
}

// auditLinks selects for every sample profile and validates all emitted links
// as one result
func auditLinks(ctx context.Context, selector *usecase.Selector) (usecase.AffiliateReport, error) {
	makeup, skincare := usecase.CoverageProfiles()
	combined := &domain.SelectionResult{UserID: "audit"}
	for _, profile := range append(makeup, skincare...) {
		result, err := selector.Select(ctx, profile)
		if err != nil && !errors.Is(err, domain.ErrSelectionEmpty) {
			return usecase.AffiliateReport{}, err
		}
		combined.Sections = append(combined.Sections, result.Sections...)
	}
	return selector.Validator().Report(combined), nil
}

func newShadeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "shade NAME...",
		Short: "Normalize raw shade names and list their neighbors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shades, err := shade.NewNormalizer(opts.shadeMap, opts.shadeNeighbor)
			if err != nil {
				return err
			}

			type row struct {
				Input     string           `json:"input"`
				Shade     domain.ShadeInfo `json:"shade"`
				Neighbors []string         `json:"neighbors,omitempty"`
			}
			rows := make([]row, 0, len(args))
			for _, raw := range args {
				info := shades.Normalize(raw)
				rows = append(rows, row{Input: raw, Shade: info, Neighbors: shades.GetShadeNeighbors(info.ShadeID)})
			}

			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INPUT\tSHADE ID\tUNDERTONE\tDEPTH\tNEIGHBORS")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", r.Input, r.Shade.ShadeID, r.Shade.Undertone, r.Shade.Depth, r.Neighbors)
			}
			return w.Flush()
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
