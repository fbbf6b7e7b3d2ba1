package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentinel-ops/sentinel/pkg/core/services"
)

// AlertsCmd creates the alerts command group
func AlertsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect and acknowledge escalation alerts",
	}

	cmd.AddCommand(alertsListCmd(app))
	cmd.AddCommand(alertsAckCmd(app))

	return cmd
}

func alertsListCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active alerts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			alerts, err := services.ListActiveAlerts(app.Ctx, app.Database, app.Logger)
			if err != nil {
				return err
			}

			if len(alerts) == 0 {
				fmt.Println("\nNo active alerts.")
				return nil
			}

			fmt.Printf("\n%d active alerts:\n\n", len(alerts))
			for _, a := range alerts {
				fmt.Printf("%s  [%s] %s\n",
					a.CreatedAt.In(app.Location).Format("2006-01-02 15:04"),
					a.Severity, a.Title)
				fmt.Printf("    %s\n", a.Message)
				fmt.Printf("    id: %s\n", a.ID)
			}
			fmt.Println()
			return nil
		},
	}
}

func alertsAckCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ack <alert_id> <member_id>",
		Short: "Acknowledge an active alert",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			note, _ := cmd.Flags().GetString("note")

			alert, err := services.AcknowledgeAlert(app.Ctx, app.Database, app.Logger, args[0], args[1], note)
			if err != nil {
				return err
			}

			fmt.Printf("\nAlert acknowledged: %s\n", alert.Title)
			return nil
		},
	}

	cmd.Flags().String("note", "", "Acknowledgement note")
	return cmd
}
