package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinel-ops/sentinel/pkg/core/services"
	"github.com/sentinel-ops/sentinel/pkg/db"
)

// AuditCmd creates the audit command showing the responsibility ledger
func AuditCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show responsibility ledger entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, _ := cmd.Flags().GetString("member")
			tagName, _ := cmd.Flags().GetString("tag")
			limit, _ := cmd.Flags().GetInt("limit")

			entries, err := services.GetAuditLog(app.Ctx, app.Database, app.Logger, db.AuditFilter{
				MemberID: memberID,
				TagName:  tagName,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("\nNo ledger entries match.")
				return nil
			}

			fmt.Printf("\n%d ledger entries:\n\n", len(entries))
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-6s %-11s member=%s",
					e.Timestamp.In(app.Location).Format("2006-01-02 15:04"),
					e.TagName, e.Action, e.MemberID)
				if e.FromMemberID != nil {
					line += fmt.Sprintf(" from=%s", *e.FromMemberID)
				}
				if e.ToMemberID != nil {
					line += fmt.Sprintf(" to=%s", *e.ToMemberID)
				}
				line += fmt.Sprintf(" by=%s", e.PerformedByType)
				fmt.Println(line)
				if e.Notes != "" {
					fmt.Printf("    %s\n", e.Notes)
				}
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("member", "", "Filter by member (subject, source, or target)")
	cmd.Flags().String("tag", "", "Filter by tag name (Lockup, DDS)")
	cmd.Flags().Int("limit", 50, "Maximum entries to show")
	return cmd
}
