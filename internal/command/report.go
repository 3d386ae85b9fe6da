package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-retrobot/internal/domain"
	"github.com/tbourn/go-retrobot/internal/services"
)

func newReportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a channel's feedback summary from the stored snapshot",
		Long: "report renders the same summary the bot posts, using the reaction counts\n" +
			"saved at the last refresh. It does not contact Slack.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, _ := cmd.Flags().GetString("channel")
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")

			store, closeStore, err := openStore(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			text := strings.TrimSpace(from) + " " + strings.TrimSpace(to)
			if _, err := services.ParseWindow(text); err != nil {
				var order *services.DateOrderError
				if errors.As(err, &order) {
					return errors.New(order.Error())
				}
				return errors.New(services.MsgBadDateCount)
			}
			report := services.NewSummaryEngine(a.cfg.Location()).Summarize(store.All(), channel, text)
			fmt.Fprint(cmd.OutOrStdout(), report)
			if !strings.HasSuffix(report, "\n") {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
	cmd.Flags().String("channel", "", "channel id")
	cmd.Flags().String("from", "", "start date, exclusive (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "end date, inclusive (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newEntriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Print stored feedback entries as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, _ := cmd.Flags().GetString("channel")

			store, closeStore, err := openStore(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			out := []domain.FeedbackEntry{}
			for _, e := range store.All() {
				if channel == "" || e.Channel == channel {
					out = append(out, e)
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().String("channel", "", "only entries from this channel id")
	return cmd
}
