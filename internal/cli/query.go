package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/maniacs-sfa/orleans/sdk/go/harness"
)

var queryFormat string

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(providerCmd)
	rootCmd.AddCommand(statusCmd)
	queryCmd.Flags().StringVarP(&queryFormat, "format", "f", "text", "Output format (text|json)")
}

var queryCmd = &cobra.Command{
	Use:   "query [substring]",
	Short: "Snapshot ordinary directory entries by grain type name",
	Long: "Lists grain directory entries whose owning grain type name contains\n" +
		"the given substring (case-sensitive). System targets and clients are\n" +
		"always excluded. No substring matches every ordinary entry.",
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	substr := ""
	if len(args) == 1 {
		substr = args[0]
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	entries, err := client.QueryDirectory(cmd.Context(), substr)
	if err != nil {
		return err
	}

	if queryFormat == "json" {
		out, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No matching entries.")
		return nil
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("%-30s %-25s %-22s %s\n", "KEY", "TYPE", "SILO", "ACTIVATION")
	for _, k := range keys {
		e := entries[k]
		fmt.Printf("%-30s %-25s %-22s %s\n", e.Key, e.Type, e.Silo, e.Activation)
	}
	return nil
}

var providerCmd = &cobra.Command{
	Use:   "provider <kind> <name>",
	Short: "Resolve a named provider through the boundary guard",
	Args:  cobra.ExactArgs(2),
	RunE:  runProvider,
}

func runProvider(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	ref, err := client.Provider(cmd.Context(), args[0], args[1])
	if errors.Is(err, harness.ErrNotFound) {
		fmt.Printf("%s provider %q not found\n", args[0], args[1])
		return nil
	}
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show control-plane status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	st, err := client.Status(cmd.Context())
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
