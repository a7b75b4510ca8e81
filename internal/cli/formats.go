package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duboc/go-captions/internal/subtitle"
)

// FormatsCmd creates the formats command, listing supported subtitle
// formats and their file extensions.
func FormatsCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported subtitle formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range subtitle.Names() {
				f, err := subtitle.ParseFormat(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(env.Stdout, "%-4s  %s\n", name, f.Extension())
			}
			return nil
		},
	}
}
