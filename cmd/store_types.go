package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/featserve/store"
)

var storeTypesCmd = &cobra.Command{
	Use:   "store-types",
	Short: "List the supported store types and their settings keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TYPE\tREQUIRED\tOPTIONAL")
		for _, v := range store.NewDefaultRegistry().Variants() {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Tag, keyList(v.Required), keyList(v.Optional))
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(storeTypesCmd)
}

func keyList(keys []string) string {
	if len(keys) == 0 {
		return "-"
	}
	return strings.Join(keys, ",")
}
