package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinel-ops/sentinel/pkg/core/services"
	"github.com/sentinel-ops/sentinel/pkg/db"
)

// LockupCmd creates the lockup command group
func LockupCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lockup",
		Short: "Manage the Lockup tag and building security",
	}

	cmd.AddCommand(lockupHolderCmd(app))
	cmd.AddCommand(lockupTransferCmd(app))
	cmd.AddCommand(lockupAcquireCmd(app))
	cmd.AddCommand(lockupSecureCmd(app))

	return cmd
}

func lockupHolderCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "holder",
		Short: "Show who currently holds the Lockup tag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			holder, err := services.GetLockupHolder(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}

			if holder == nil {
				fmt.Println("\nLockup tag is unassigned.")
				return nil
			}

			fmt.Printf("\nLockup holder: %s\n", holder.DisplayName())
			fmt.Printf("Held since:    %s\n\n", holder.HeldSince.In(app.Location).Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func lockupTransferCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer <to_member_id>",
		Short: "Transfer the Lockup tag to another member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			performedBy, _ := cmd.Flags().GetString("by")
			notes, _ := cmd.Flags().GetString("notes")

			result, err := services.TransferLockupTag(
				app.Ctx, app.Database, app.Logger,
				args[0], optional(performedBy), db.ActorAdmin, notes,
			)
			if err != nil {
				return err
			}

			if result == nil {
				fmt.Println("\nLockup tag has no holder; nothing to transfer.")
				fmt.Println("Use 'lockup acquire' to originate a holding.")
				return nil
			}

			if !result.LedgerWritten {
				fmt.Printf("\n%s already holds the Lockup tag.\n", result.NewHolder.DisplayName())
				return nil
			}

			fmt.Printf("\nLockup tag transferred: %s -> %s\n",
				result.PreviousHolder.DisplayName(),
				result.NewHolder.DisplayName())
			return nil
		},
	}

	cmd.Flags().String("by", "", "Member ID performing the transfer")
	cmd.Flags().String("notes", "", "Notes for the ledger entry")
	return cmd
}

func lockupAcquireCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "acquire <member_id>",
		Short: "Originate a Lockup holding when nobody holds the tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			performedBy, _ := cmd.Flags().GetString("by")
			notes, _ := cmd.Flags().GetString("notes")

			holder, err := services.AcquireLockupTag(
				app.Ctx, app.Database, app.Logger,
				args[0], optional(performedBy), db.ActorAdmin, notes,
			)
			if err != nil {
				return err
			}

			fmt.Printf("\nLockup tag acquired by %s.\n", holder.DisplayName())
			return nil
		},
	}

	cmd.Flags().String("by", "", "Member ID performing the acquisition")
	cmd.Flags().String("notes", "", "Notes for the ledger entry")
	return cmd
}

func lockupSecureCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secure <member_id>",
		Short: "Mark the building secured for the current operational date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, _ := cmd.Flags().GetString("notes")
			opDate := app.Clock.Today()

			status, err := services.SecureBuilding(app.Ctx, app.Database, app.Logger, opDate, args[0], notes)
			if err != nil {
				return err
			}

			fmt.Printf("\nBuilding secured for %s at %s.\n",
				status.OperationalDate,
				status.SecuredAt.In(app.Location).Format("15:04"))
			return nil
		},
	}

	cmd.Flags().String("notes", "", "Notes on the securing")
	return cmd
}

// optional maps an empty flag value to a nil pointer
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
