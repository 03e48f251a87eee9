package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/creator-roster/internal/influencer"
)

const dateLayout = "2006-01-02"

var (
	campaignName  string
	campaignStart string
	campaignEnd   string
)

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage campaigns",
}

var campaignEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Find a campaign by name, creating it if missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("campaign"); err != nil {
			return err
		}
		dates, err := parseDateRange(campaignStart, campaignEnd)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "campaign: ensure schema")
		}

		c, err := st.FindOrCreateCampaign(ctx, campaignName, dates)
		if err != nil {
			return eris.Wrap(err, "campaign ensure")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", c.ID, c.Name)
		return nil
	},
}

// parseDateRange parses optional YYYY-MM-DD bounds.
func parseDateRange(start, end string) (influencer.DateRange, error) {
	var dr influencer.DateRange
	if start != "" {
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return dr, eris.Wrapf(err, "invalid start date %q (want YYYY-MM-DD)", start)
		}
		dr.Start = &t
	}
	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return dr, eris.Wrapf(err, "invalid end date %q (want YYYY-MM-DD)", end)
		}
		dr.End = &t
	}
	if dr.Start != nil && dr.End != nil && dr.End.Before(*dr.Start) {
		return dr, eris.Errorf("campaign ends (%s) before it starts (%s)", end, start)
	}
	return dr, nil
}

func init() {
	campaignEnsureCmd.Flags().StringVar(&campaignName, "name", "", "campaign name (required)")
	campaignEnsureCmd.Flags().StringVar(&campaignStart, "start", "", "campaign start date, YYYY-MM-DD")
	campaignEnsureCmd.Flags().StringVar(&campaignEnd, "end", "", "campaign end date, YYYY-MM-DD")
	_ = campaignEnsureCmd.MarkFlagRequired("name")

	campaignCmd.AddCommand(campaignEnsureCmd)
	rootCmd.AddCommand(campaignCmd)
}
