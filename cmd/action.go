package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/chxlky/trello-agent/api"
	"github.com/chxlky/trello-agent/database"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var actionJSON bool

var actionCmd = &cobra.Command{
	Use:   "action <name> [json-args]",
	Short: "Run a single action and print its narrative",
	Long: `Run one named action against Trello or Google Calendar and print the
narrative. Arguments are a JSON object; pass "-" to read them from stdin.

Example:
  trello-agent action createCard '{"boardName":"Agentika","listName":"To-Do","cardName":"Finish documentation"}'`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := api.Lookup(args[0]); !ok {
			return fmt.Errorf("%w: %s (run 'trello-agent actions' for the list)", api.ErrUnknownAction, args[0])
		}

		var raw []byte
		if len(args) == 2 {
			if args[1] == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read arguments from stdin: %w", err)
				}
				raw = b
			} else {
				raw = []byte(args[1])
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		db, err := database.Open(viper.GetString("database.path"))
		if err != nil {
			return err
		}
		a, err := buildApp(ctx, db)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, invokeErr := api.Invoke(ctx, a.pipeline, args[0], raw)
		if actionJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), resp.Narrative)
		}

		if invokeErr != nil {
			return invokeErr
		}
		if !resp.Success {
			return fmt.Errorf("%s failed at %s", resp.Action, resp.Stage)
		}
		return nil
	},
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the available actions with example arguments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for i, a := range api.Actions() {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s\n  %s\n", a.Name, a.Description)
			for _, ex := range a.Examples {
				fmt.Fprintf(out, "  example: %s\n", strings.TrimSpace(ex))
			}
		}
		return nil
	},
}

func init() {
	actionCmd.Flags().BoolVar(&actionJSON, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(actionsCmd)
}
