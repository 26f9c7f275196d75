package cmd

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kilianp07/featserve/config"
	"github.com/kilianp07/featserve/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and resolve the active store",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				fmt.Fprintf(out, "%s\n", v)
			}
			return fmt.Errorf("%d violation(s) in %s", len(verr.Violations), cfgPath)
		}
		return err
	}

	active, err := cfg.ActiveStore()
	if err != nil {
		return err
	}
	stores := store.NewDefaultRegistry()
	conn, err := stores.Decode(active)
	if err != nil {
		return err
	}
	v, _ := stores.Lookup(active.Type())
	fmt.Fprintf(out, "active store %s (%s)\n", active.Name(), active.Type())
	printSettings(out, v.Keys(), conn.Settings())
	return nil
}

// printSettings writes settings in schema order; keys outside the schema
// follow in lexical order.
func printSettings(w io.Writer, schema []string, settings map[string]string) {
	keys := make([]string, 0, len(settings))
	for _, k := range schema {
		if _, ok := settings[k]; ok {
			keys = append(keys, k)
		}
	}
	var extra []string
	for k := range settings {
		if !slices.Contains(schema, k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range append(keys, extra...) {
		v := settings[k]
		if isSecretKey(k) && v != "" {
			v = redacted
		}
		fmt.Fprintf(w, "  %s: %s\n", k, v)
	}
}
