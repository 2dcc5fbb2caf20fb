package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/lootbox/internal/journal"
	"github.com/zjrosen/lootbox/internal/presentation"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit   int
		session string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show journaled load sessions",
		Long: `Show load sessions recorded in the journal, most recent first.
Sessions are recorded when the "journal" flag is on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			j, err := journal.Open(a.resolve(a.cfg.Journal.Path))
			if err != nil {
				return err
			}
			defer func() { _ = j.Close() }()

			if session != "" {
				records, err := j.Failures(cmd.Context(), session)
				if err != nil {
					return err
				}
				return a.formatter(cmd).FormatFailures(presentation.FromFailureRecords(records))
			}

			entries, err := j.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return a.formatter(cmd).FormatHistory(presentation.FromHistory(entries))
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to show (0 = all)")
	cmd.Flags().StringVar(&session, "session", "", "show the failures of one session")
	return cmd
}
