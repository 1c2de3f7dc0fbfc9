package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mu-bmd-unroll/internal/batch"
)

func newInspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <file.bmd>...",
		Short: "Show meshes and islands and what an unroll would do, without writing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, codec, mapper, err := setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			out := cmd.OutOrStdout()
			var all []*batch.Inspection
			for _, path := range args {
				ins, err := batch.Inspect(codec, mapper, path)
				if err != nil {
					return err
				}
				if asJSON {
					all = append(all, ins)
					continue
				}
				printInspection(out, ins)
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text.")
	return cmd
}

func printInspection(w io.Writer, ins *batch.Inspection) {
	fmt.Fprintf(w, "\n=== %s (%q v%d, meshes=%d bones=%d) ===\n", ins.File, ins.Name, ins.Version, len(ins.Meshes), ins.Bones)
	for _, m := range ins.Meshes {
		fmt.Fprintf(w, "  Mesh[%d] %s tex=%q v=%d f=%d tc=%d\n", m.Index, m.Kind, m.Texture, m.Vertices, m.Faces, m.Texcoords)
		if m.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", m.Error)
			continue
		}
		for _, is := range m.Islands {
			if is.Reason != "" {
				fmt.Fprintf(w, "    island %d: faces=%d quads=%t  SKIP %s\n", is.ID, is.Faces, is.Quads, is.Reason)
				continue
			}
			fmt.Fprintf(w, "    island %d: faces=%d origin=%d grid=%dx%d size=%.3fx%.3f\n",
				is.ID, is.Faces, is.Origin, is.Rows, is.Cols, is.Width, is.Height)
		}
	}
}
