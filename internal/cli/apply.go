package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maniacs-sfa/orleans/internal/scenario"
)

func init() {
	rootCmd.AddCommand(applyCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply <scenario.yaml>",
	Short: "Apply a loss scenario file to the running host",
	Long: "Loads a scenario YAML locally and replays it against the control\n" +
		"server: everything armed before is cleared, then each loss rule is\n" +
		"armed. Re-applying a scenario therefore replaces, never merges.",
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func runApply(cmd *cobra.Command, args []string) error {
	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	for _, w := range sc.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.DisableAll(cmd.Context()); err != nil {
		return err
	}
	for _, l := range sc.Losses {
		if err := client.Enable(cmd.Context(), l.Endpoint, l.Percent); err != nil {
			return fmt.Errorf("arming %s: %w", l.Endpoint, err)
		}
	}
	fmt.Printf("applied scenario %q (%d losses)\n", sc.Name, len(sc.Losses))
	return nil
}
