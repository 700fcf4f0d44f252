package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/docstruct/internal/segment"
)

var splitJSON bool

// splitCmd represents the split command
var splitCmd = &cobra.Command{
	Use:   "split [text]",
	Short: "Split text into sentences",
	Long: `Split prints one sentence per line. Text is read from standard input
when no argument is given.

Example:
  docstruct split "Dr. Smith arrived at 3.15 p.m. He was late."
  cat essay.txt | docstruct split --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.Flags().BoolVar(&splitJSON, "json", false, "print a JSON array")
}

func runSplit(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	sentences := []string{}
	if strings.TrimSpace(text) != "" {
		sentences = segment.Split(text)
	}

	out := cmd.OutOrStdout()
	if splitJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sentences)
	}
	for _, s := range sentences {
		fmt.Fprintln(out, s)
	}
	return nil
}

