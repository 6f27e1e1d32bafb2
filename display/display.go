// Package display handles command output formatting: pretty JSON for humans,
// compact JSON when a command is piped into other tooling.
package display

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brieflex/brieflex/errors"
)

// ShouldOutputJSON reports whether a command should emit JSON, from the
// command's own --json flag or the global one.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}
	globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json")
	return globalFlag
}

// MarshalJSON marshals v compactly when stdout is not a terminal, pretty
// otherwise.
func MarshalJSON(v interface{}) ([]byte, error) {
	if stat, err := os.Stdout.Stat(); err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

// OutputJSON marshals and prints v.
func OutputJSON(v interface{}) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return errors.Wrap(err, "marshal JSON")
	}
	fmt.Println(string(data))
	return nil
}
