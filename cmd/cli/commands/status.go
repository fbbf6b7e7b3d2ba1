package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinel-ops/sentinel/pkg/core/services"
)

// StatusCmd creates the status command showing the duty picture for the
// current operational date
func StatusCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show building status, lockup holder, and current DDS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opDate := app.Clock.Today()

			snapshot, err := services.GetBuildingSnapshot(app.Ctx, app.Database, app.Logger, opDate)
			if err != nil {
				return err
			}

			current, err := services.GetCurrentDds(app.Ctx, app.Database, nil, app.Logger, opDate)
			if err != nil {
				return err
			}

			fmt.Printf("\nOperational date: %s\n\n", opDate)

			if snapshot.Secured() {
				fmt.Println("Building:  SECURED")
			} else {
				fmt.Println("Building:  UNSECURED")
			}

			if snapshot.LockupHolder != nil {
				fmt.Printf("Lockup:    %s (since %s)\n",
					snapshot.LockupHolder.DisplayName(),
					snapshot.LockupHolder.HeldSince.In(app.Location).Format("2006-01-02 15:04"))
			} else {
				fmt.Println("Lockup:    unassigned")
			}

			if current.Assignment != nil {
				onSite := "off site"
				if current.IsOnSite {
					onSite = "on site"
				}
				fmt.Printf("DDS:       %s (%s, %s)\n",
					current.Assignment.Member.DisplayName(),
					current.Assignment.Status,
					onSite)
			} else {
				fmt.Println("DDS:       none")
			}

			fmt.Printf("Presence:  %d members, %d visitors\n\n",
				snapshot.Presence.PresentMembers,
				snapshot.Presence.PresentVisitors)

			return nil
		},
	}
}
