package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/audiolibrelab/voicecapture/internal/format"

	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported encoders",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ENCODER\tCODEC\tEXTENSION\tMIME TYPE")

		for _, enc := range format.Encoders() {
			spec, err := format.Resolve(string(enc), format.DefaultSampleRate, format.DefaultBitRate)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", spec.Encoder, spec.Codec, spec.Extension, spec.MimeType())
		}

		def := format.Default()
		fmt.Fprintf(w, "(default)\t%s\t%s\t%s\n", def.Codec, def.Extension, def.MimeType())
		return w.Flush()
	},
}
