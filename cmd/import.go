package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/creator-roster/internal/blob"
	"github.com/sells-group/creator-roster/internal/enrich"
	"github.com/sells-group/creator-roster/internal/importer"
	"github.com/sells-group/creator-roster/internal/normalize"
	"github.com/sells-group/creator-roster/internal/resilience"
	"github.com/sells-group/creator-roster/pkg/profile"
)

var (
	importRoster          string
	importSecondary       string
	importMapping         string
	importCampaign        string
	importCampaignStart   string
	importCampaignEnd     string
	importTier            string
	importRequireApproval bool
	importSkipEnrichment  bool
	importDryRun          bool
	importOutput          string
	importFormat          string
	importManualOut       string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a creator roster into a campaign",
	Long: "Loads the roster, the optional post scrape export and the optional name-to-handle mapping, " +
		"then creates or merges one identity per row and links it to the campaign. " +
		"The run summary is written to --output; rows needing a manual handle lookup go to --manual-out.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		offline := importSkipEnrichment || importDryRun
		mode := "import"
		if offline {
			mode = "import-offline"
		}
		if err := cfg.Validate(mode); err != nil {
			return err
		}
		if importFormat != "json" && importFormat != "yaml" {
			return eris.Errorf("unsupported --format %q (want json or yaml)", importFormat)
		}

		dates, err := parseDateRange(importCampaignStart, importCampaignEnd)
		if err != nil {
			return err
		}

		tierRaw := importTier
		if tierRaw == "" {
			tierRaw = cfg.Import.DefaultTier
		}
		tier, ok := normalize.ParseTier(tierRaw)
		if !ok {
			return eris.Errorf("invalid tier %q (want A, B, C or D)", tierRaw)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		// A dry run must leave the database untouched, schema included.
		if !importDryRun {
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "import: ensure schema")
			}
		}

		var en importer.Enricher
		if !offline {
			e, err := newEnricher()
			if err != nil {
				return err
			}
			en = e
		}

		sum, runErr := importer.New(st, en).Run(ctx, importer.Sources{
			Primary:   importRoster,
			Secondary: importSecondary,
			Mapping:   importMapping,
		}, importer.RunOptions{
			Campaign:        importCampaign,
			CampaignDates:   dates,
			Tier:            tier,
			Owner:           cfg.Import.Owner,
			SourceLabel:     cfg.Import.SourceLabel,
			RequireApproval: importRequireApproval,
			SkipEnrichment:  importSkipEnrichment,
			DryRun:          importDryRun,
		})
		if sum == nil {
			return runErr
		}

		if err := writeSummary(cmd.OutOrStdout(), sum, importOutput, importFormat); err != nil {
			return err
		}
		if importManualOut != "" {
			if err := writeManualLookup(sum, importManualOut); err != nil {
				return err
			}
		}
		return runErr
	},
}

// newEnricher wires the profile client, throttle, retries, breaker and the
// avatar blob store from config.
func newEnricher() (*enrich.Enricher, error) {
	var avatars blob.Store
	if cfg.Avatar.Enabled {
		ls, err := blob.NewLocalStore(cfg.Blob.Dir, cfg.Blob.BaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "import: blob store")
		}
		avatars = ls
	}

	client := profile.NewClient(cfg.Profile.Key, profile.WithBaseURL(cfg.Profile.BaseURL))
	return enrich.New(client, avatars, enrich.Config{
		Throttle:       cfg.Profile.Throttle(),
		AttemptTimeout: cfg.Profile.Timeout(),
		Retry:          resilience.FromRetryConfig(cfg.Profile.MaxAttempts, 0, 0, 0, -1),
		Breaker:        resilience.FromCircuitConfig(cfg.Profile.BreakerThreshold, cfg.Profile.BreakerResetSecs),
		Avatar: enrich.AvatarConfig{
			Enabled: cfg.Avatar.Enabled,
			MaxPx:   cfg.Avatar.MaxPx,
			Timeout: time.Duration(cfg.Avatar.TimeoutSecs) * time.Second,
		},
	}), nil
}

// writeSummary writes to path, or to stdout when path is empty or "-".
func writeSummary(stdout io.Writer, sum *importer.Summary, path, format string) error {
	w := stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "import: create summary %s", path)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	var err error
	if format == "yaml" {
		err = sum.WriteYAML(w)
	} else {
		err = sum.WriteJSON(w)
	}
	if err != nil {
		return err
	}

	zap.L().Info("import summary written",
		zap.String("run_id", sum.RunID),
		zap.String("path", path),
		zap.Int("created", sum.Created),
		zap.Int("updated", sum.Updated),
		zap.Int("needs_manual_lookup", len(sum.NeedsManualLookup)),
	)
	return nil
}

func writeManualLookup(sum *importer.Summary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "import: create manual lookup file %s", path)
	}
	if err := sum.WriteManualLookupTSV(f); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(f.Close(), "import: close manual lookup file %s", path)
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&importRoster, "roster", "", "primary roster export: .csv, .tsv or .xlsx (required)")
	f.StringVar(&importSecondary, "secondary", "", "post scrape export keyed by post URL")
	f.StringVar(&importMapping, "mapping", "", "tab-separated name to social reference file")
	f.StringVar(&importCampaign, "campaign", "", "campaign name, created if missing (required)")
	f.StringVar(&importCampaignStart, "campaign-start", "", "campaign start date, YYYY-MM-DD")
	f.StringVar(&importCampaignEnd, "campaign-end", "", "campaign end date, YYYY-MM-DD")
	f.StringVar(&importTier, "tier", "", "tier for new creators without one in the roster (default import.default_tier)")
	f.BoolVar(&importRequireApproval, "require-approval", false, "flag every association as needing sign-off")
	f.BoolVar(&importSkipEnrichment, "skip-enrichment", false, "do not call the profile API for new creators")
	f.BoolVar(&importDryRun, "dry-run", false, "resolve and merge without writing anything")
	f.StringVar(&importOutput, "output", "", "summary output path (default stdout)")
	f.StringVar(&importFormat, "format", "json", "summary format: json or yaml")
	f.StringVar(&importManualOut, "manual-out", "", "write rows needing a manual handle lookup to this TSV")
	_ = importCmd.MarkFlagRequired("roster")
	_ = importCmd.MarkFlagRequired("campaign")
	rootCmd.AddCommand(importCmd)
}
