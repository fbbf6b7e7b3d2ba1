package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinel-ops/sentinel/pkg/core/services"
	"github.com/sentinel-ops/sentinel/pkg/db"
)

// DdsCmd creates the dds command group
func DdsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dds",
		Short: "Manage Daily Duty Staff assignments",
	}

	cmd.AddCommand(ddsAssignCmd(app))
	cmd.AddCommand(ddsAcceptCmd(app))
	cmd.AddCommand(ddsSelfAcceptCmd(app))
	cmd.AddCommand(ddsTransferCmd(app))
	cmd.AddCommand(ddsReleaseCmd(app))
	cmd.AddCommand(ddsCurrentCmd(app))

	return cmd
}

// dateFlag resolves the --date flag, defaulting to the current
// operational date
func dateFlag(app *AppContext, cmd *cobra.Command) string {
	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = app.Clock.Today()
	}
	return date
}

func ddsAssignCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign <member_id>",
		Short: "Assign a member as pending DDS for an operational date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignedBy, _ := cmd.Flags().GetString("by")
			notes, _ := cmd.Flags().GetString("notes")
			date := dateFlag(app, cmd)

			assignment, err := services.AssignDds(
				app.Ctx, app.Database, app.Logger,
				date, args[0], optional(assignedBy), notes,
			)
			if err != nil {
				return err
			}

			fmt.Printf("\nDDS assigned for %s: %s (pending acceptance)\n",
				assignment.AssignedDate,
				assignment.Member.DisplayName())
			fmt.Printf("Assignment ID: %s\n", assignment.ID)
			return nil
		},
	}

	cmd.Flags().String("date", "", "Operational date (YYYY-MM-DD, default today)")
	cmd.Flags().String("by", "", "Member ID of the assigning admin")
	cmd.Flags().String("notes", "", "Notes for the ledger entry")
	return cmd
}

func ddsAcceptCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <assignment_id>",
		Short: "Accept a pending DDS assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignment, err := services.AcceptDds(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\nDDS accepted: %s is now active for %s.\n",
				assignment.Member.DisplayName(),
				assignment.AssignedDate)
			return nil
		},
	}
}

func ddsSelfAcceptCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "self-accept <member_id>",
		Short: "Take DDS duty directly, with lockup auto-transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")
			date := dateFlag(app, cmd)

			assignment, err := services.SelfAcceptDds(
				app.Ctx, app.Database, app.Logger,
				date, args[0], notes,
			)
			if err != nil {
				return err
			}

			fmt.Printf("\nDDS self-accepted: %s is active for %s.\n",
				assignment.Member.DisplayName(),
				assignment.AssignedDate)
			return nil
		},
	}

	cmd.Flags().String("date", "", "Operational date (YYYY-MM-DD, default today)")
	cmd.Flags().String("notes", "", "Notes for the ledger entry")
	return cmd
}

func ddsTransferCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer <to_member_id>",
		Short: "Transfer the active DDS duty to another member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			performedBy, _ := cmd.Flags().GetString("by")
			notes, _ := cmd.Flags().GetString("notes")
			date := dateFlag(app, cmd)

			successor, err := services.TransferDds(
				app.Ctx, app.Database, app.Logger,
				date, args[0], optional(performedBy), db.ActorAdmin, notes,
			)
			if err != nil {
				return err
			}

			fmt.Printf("\nDDS transferred for %s: %s is now active.\n",
				successor.AssignedDate,
				successor.Member.DisplayName())
			return nil
		},
	}

	cmd.Flags().String("date", "", "Operational date (YYYY-MM-DD, default today)")
	cmd.Flags().String("by", "", "Member ID performing the transfer")
	cmd.Flags().String("notes", "", "Notes for the ledger entry")
	return cmd
}

func ddsReleaseCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "End the active DDS duty with no successor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			performedBy, _ := cmd.Flags().GetString("by")
			notes, _ := cmd.Flags().GetString("notes")
			date := dateFlag(app, cmd)

			released, err := services.ReleaseDds(
				app.Ctx, app.Database, app.Logger,
				date, optional(performedBy), db.ActorAdmin, notes,
			)
			if err != nil {
				return err
			}

			if released == nil {
				fmt.Printf("\nNo active DDS assignment for %s; nothing to release.\n", date)
				return nil
			}

			fmt.Printf("\nDDS released for %s: %s\n",
				released.AssignedDate,
				released.Member.DisplayName())
			return nil
		},
	}

	cmd.Flags().String("date", "", "Operational date (YYYY-MM-DD, default today)")
	cmd.Flags().String("by", "", "Member ID performing the release")
	cmd.Flags().String("notes", "", "Notes for the ledger entry")
	return cmd
}

func ddsCurrentCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show the live DDS assignment for an operational date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date := dateFlag(app, cmd)

			current, err := services.GetCurrentDds(app.Ctx, app.Database, nil, app.Logger, date)
			if err != nil {
				return err
			}

			if current.Assignment == nil {
				fmt.Printf("\nNo live DDS assignment for %s.\n", date)
				return nil
			}

			a := current.Assignment
			fmt.Printf("\nDDS for %s: %s\n", a.AssignedDate, a.Member.DisplayName())
			fmt.Printf("Status:    %s\n", a.Status)
			if a.AcceptedAt != nil {
				fmt.Printf("Accepted:  %s\n", a.AcceptedAt.In(app.Location).Format("2006-01-02 15:04"))
			}
			if current.IsOnSite {
				fmt.Println("Presence:  on site")
			} else {
				fmt.Println("Presence:  off site")
			}
			return nil
		},
	}

	cmd.Flags().String("date", "", "Operational date (YYYY-MM-DD, default today)")
	return cmd
}
