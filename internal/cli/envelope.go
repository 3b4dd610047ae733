package cli

import (
	"encoding/json"
	"fmt"
	goimage "image"
	"io"

	"sem-view/internal/annotation"
	"sem-view/internal/app"
	"sem-view/internal/envelope"
	"sem-view/internal/image"
	"sem-view/internal/prefs"
	"sem-view/internal/segment"
	"sem-view/internal/semmeta"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	envelopeJSON   bool
	envelopeResave bool
	envelopeBurnIn bool
)

var envelopeCmd = &cobra.Command{
	Use:   "envelope <image>",
	Short: "Print the measurements embedded in an annotated image",
	Long: `Read the JSON envelope stored in the image description and list the
saved measurements. Editable annotations are restored and re-measured with
the image's own calibration.

Examples:
  semview envelope annotated.tif
  semview envelope --json annotated.tif
  semview envelope --resave --burn-in annotated.tif   # Preview what a save would embed`,
	Args: cobra.ExactArgs(1),
	RunE: runEnvelope,
}

func init() {
	rootCmd.AddCommand(envelopeCmd)

	envelopeCmd.Flags().BoolVar(&envelopeJSON, "json", false, "print the raw envelope as JSON")
	envelopeCmd.Flags().BoolVar(&envelopeResave, "resave", false, "print the envelope a save of the restored annotations would write")
	envelopeCmd.Flags().BoolVar(&envelopeBurnIn, "burn-in", false, "with --resave: burnt-in mode (default from preferences)")
}

func runEnvelope(cmd *cobra.Command, args []string) error {
	if envelopeResave {
		burnIn := envelopeBurnIn
		if !cmd.Flags().Changed("burn-in") {
			burnIn = prefs.Load().BurnIn()
		}
		return runResave(cmd.OutOrStdout(), args[0], burnIn)
	}

	layer, err := image.Load(args[0])
	if err != nil {
		return err
	}
	if layer.Description == nil {
		return errors.Errorf("%s: no image description", args[0])
	}
	doc, err := envelope.Parse(layer.Description)
	if err != nil {
		return errors.Wrap(err, args[0])
	}

	if envelopeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(doc), "encode envelope")
	}
	scale := semmeta.DecodeScale(layer.Metadata())
	return writeEnvelope(cmd.OutOrStdout(), doc, scale)
}

// runResave loads the image the way the viewer does and prints the payload
// that saving it would produce. The clean page stands in for the rendered
// overlay in burnt-in mode.
func runResave(w io.Writer, path string, burnIn bool) error {
	st := app.NewState(segment.New())
	if err := st.LoadImage(path); err != nil {
		return err
	}

	var rendered goimage.Image
	if burnIn {
		rendered = image.Normalize8(st.Layer.Image)
	}
	payload, err := st.PrepareSave(burnIn, rendered)
	if err != nil {
		return err
	}

	b := payload.Page.Bounds()
	fmt.Fprintf(w, "Page: %d x %d RGB, burnt in: %v\n", b.Dx(), b.Dy(), burnIn)
	fmt.Fprintf(w, "SEM tag: %d bytes\n", len(payload.SEMTag))
	fmt.Fprintf(w, "%s\n", payload.Description)
	return nil
}

func writeEnvelope(w io.Writer, doc *envelope.Document, scale semmeta.Scale) error {
	fmt.Fprintf(w, "Description: %s\n", doc.Description)
	for i, m := range doc.Measurements {
		fmt.Fprintf(w, "  %2d. %-8s %-16s %s\n", i+1, m.Type, m.Label, m.Color)
	}

	switch {
	case doc.IsBurntIn:
		fmt.Fprintln(w, "Annotations are burnt into the pixels.")
	case doc.HasAnnotations():
		store := annotation.NewStore(scale, nil)
		n := store.Restore(*doc)
		fmt.Fprintf(w, "Editable annotations: %d of %d restored\n", n, len(doc.Annotations))
		for _, m := range store.Measurements() {
			fmt.Fprintf(w, "  %-8s %-16s %d points\n", m.Kind, m.Label, len(m.Points))
		}
	}
	return nil
}
