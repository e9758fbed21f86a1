package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-drift/viewbridge/pkg/platform"
)

func init() {
	RegisterCommand(newDecodeCmd())
}

func newDecodeCmd() *cobra.Command {
	var slot string

	cmd := &cobra.Command{
		Use:   "decode [json]",
		Short: "Run a payload through the object or array codec",
		Long: `Decode JSON text the way a view's Object or Array slot does and print
the canonical encoding the host would receive back.

Text that does not decode prints the empty value the slot degrades to,
and the command fails with the decode error. Without an argument the
text is read from stdin.

Examples:
  viewbridge decode '{"b":1,"a":[true]}'
  echo '[1, 2' | viewbridge decode --slot array`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = strings.TrimSpace(string(data))
			}
			return runDecode(cmd.OutOrStdout(), slot, text)
		},
	}
	cmd.Flags().StringVar(&slot, "slot", "object", "Slot to decode for (object or array)")
	return cmd
}

func runDecode(out io.Writer, slot, text string) error {
	var (
		canonical string
		decodeErr error
		err       error
	)
	switch slot {
	case "object":
		var m map[string]any
		m, decodeErr = platform.DecodeObject(text)
		canonical, err = platform.EncodeObject(m)
	case "array":
		var list []any
		list, decodeErr = platform.DecodeArray(text)
		canonical, err = platform.EncodeArray(list)
	default:
		return fmt.Errorf("unknown slot %q (use object or array)", slot)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, canonical)
	return decodeErr
}
