package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/crm-dashboard/internal/config"
	"github.com/AngelCh415/crm-dashboard/internal/ingest"
	"github.com/AngelCh415/crm-dashboard/internal/models"
	"github.com/AngelCh415/crm-dashboard/internal/store"
	"github.com/AngelCh415/crm-dashboard/internal/telemetry"
)

// NewSnapshotCmd creates the snapshot command
func NewSnapshotCmd() *cobra.Command {
	var (
		preset  string
		start   string
		end     string
		url     string
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch the CRM export once and print the dashboard snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if url != "" {
				cfg.WebhookURL = url
			}
			p, err := models.ParsePreset(preset)
			if err != nil {
				return err
			}
			if (start == "") != (end == "") {
				return fmt.Errorf("--start and --end go together")
			}
			if start != "" && preset == "" {
				p = models.PresetCustom
			}

			log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
			etl := ingest.NewETL(ingest.NewHTTPClient(cfg.HTTPTimeout), store.NewMemoryStore(false), log, cfg, telemetry.NewMetrics())
			snap, err := etl.Run(cmd.Context(), models.DateFilter{Preset: p, StartDate: start, EndDate: end})
			if err != nil {
				return fmt.Errorf("failed to build snapshot: %w", err)
			}
			if snap == nil {
				return fmt.Errorf("the CRM returned an empty export")
			}
			return printSnapshot(cmd, snap, summary)
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "today, week, month, last_month, all or custom (default month)")
	cmd.Flags().StringVar(&start, "start", "", "window start, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "window end, YYYY-MM-DD")
	cmd.Flags().StringVar(&url, "url", "", "webhook URL (overrides WEBHOOK_URL)")
	cmd.Flags().BoolVar(&summary, "summary", false, "print the headline metrics only")
	return cmd
}

func printSnapshot(cmd *cobra.Command, snap *models.Snapshot, summary bool) error {
	out := cmd.OutOrStdout()
	if summary {
		m := snap.Metrics
		fmt.Fprintf(out, "Window:     %s .. %s\n", snap.Window.Start, snap.Window.End)
		fmt.Fprintf(out, "Records:    %d\n", snap.Records)
		fmt.Fprintf(out, "Revenue:    %.2f (paid %.2f)\n", m.TotalRevenue, m.PaidRevenue)
		fmt.Fprintf(out, "Contracts:  %d\n", m.TotalContracts)
		fmt.Fprintf(out, "Cash flow:  %.2f\n", m.TotalCashFlow)
		fmt.Fprintf(out, "Meetings:   %d\n", m.TotalMeetings)
		fmt.Fprintf(out, "Commission: %.2f\n", m.TotalCommission)
		fmt.Fprintf(out, "Proposals:  %.2f\n", m.TotalProposalValue)
		return nil
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
