package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/VRPlayer/internal/input"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List key bindings",
	Long: `List the active key bindings: the defaults merged with the keys
section of the configuration file.`,
	Example: `  # List bindings in table format (default)
  vrplayer keys

  # List bindings in JSON format
  vrplayer keys --format json`,
	RunE: runKeys,
}

var keysFormat string

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.Flags().StringVarP(&keysFormat, "format", "f", "table", "output format (table or json)")
}

func runKeys(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	keymap, err := input.NewKeymap(configMgr.Get().Keys)
	if err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}
	bindings := keymap.Bindings()

	switch keysFormat {
	case "json":
		out := make(map[string]string, len(bindings))
		for _, b := range bindings {
			out[b[0]] = b[1]
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tACTION")
		fmt.Fprintln(w, "---\t------")
		for _, b := range bindings {
			fmt.Fprintf(w, "%s\t%s\n", b[0], b[1])
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", keysFormat)
	}
}
