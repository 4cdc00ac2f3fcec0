package cli

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
	rootCmd.AddCommand(faultsCmd)
}

var enableCmd = &cobra.Command{
	Use:   "enable <endpoint> <percent>",
	Short: "Arm message loss toward a silo endpoint",
	Long: "Arms probabilistic loss for messages addressed to <endpoint>\n" +
		"(host:port) at <percent> probability. Repeating the command for the\n" +
		"same endpoint overwrites the percentage.",
	Args: cobra.ExactArgs(2),
	RunE: runEnable,
}

func runEnable(cmd *cobra.Command, args []string) error {
	percent, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid percent %q: %w", args[1], err)
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.Enable(cmd.Context(), args[0], percent); err != nil {
		return err
	}
	fmt.Printf("armed %s at %v%%\n", args[0], percent)
	return nil
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disarm all message loss",
	Long:  "Removes the drop predicate from the send path and clears every armed endpoint.",
	RunE:  runDisable,
}

func runDisable(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	if err := client.DisableAll(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("all message loss disarmed")
	return nil
}

var faultsCmd = &cobra.Command{
	Use:   "faults",
	Short: "Show armed endpoints and their loss percentages",
	RunE:  runFaults,
}

func runFaults(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	table, err := client.Faults(cmd.Context())
	if err != nil {
		return err
	}
	if len(table) == 0 {
		fmt.Println("No message loss armed.")
		return nil
	}

	endpoints := make([]string, 0, len(table))
	for ep := range table {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("%-30s %s\n", "ENDPOINT", "LOSS %")
	for _, ep := range endpoints {
		fmt.Printf("%-30s %v\n", ep, table[ep])
	}
	return nil
}
