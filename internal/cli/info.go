package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"sem-view/internal/app"
	"sem-view/internal/prefs"
	"sem-view/internal/segment"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	infoJSON bool
)

// ImageInfo is the machine-readable output of the info command.
type ImageInfo struct {
	Path         string            `json:"path"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Format       string            `json:"format"`
	Scale        float64           `json:"meters_per_pixel"`
	ScaleLabel   string            `json:"scale"`
	Context      map[string]string `json:"context,omitempty"`
	Fields       []string          `json:"-"`
	BurntIn      bool              `json:"is_burnt_in"`
	Measurements int               `json:"measurements"`
	AutoArea     bool              `json:"auto_area_available"`
}

var infoCmd = &cobra.Command{
	Use:   "info <image>",
	Short: "Show calibration and acquisition context",
	Long: `Decode the instrument metadata of an image and print the pixel scale
and the acquisition context (tool, beam voltage, aperture, working distance,
magnification, date, author).

Examples:
  semview info sample.tif
  semview info --json sample.tif`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "output as JSON")
}

func runInfo(cmd *cobra.Command, args []string) error {
	st := app.NewState(segment.New())
	if err := st.LoadImage(args[0]); err != nil {
		return err
	}

	p := prefs.Load()
	p.RememberFile(args[0])
	if err := p.Save(); err != nil {
		log.Printf("Failed to save preferences: %v", err)
	}

	return writeInfo(cmd.OutOrStdout(), collectInfo(st), infoJSON)
}

func collectInfo(st *app.State) ImageInfo {
	info := ImageInfo{
		Path:         st.ImagePath,
		Width:        st.Layer.Width(),
		Height:       st.Layer.Height(),
		Format:       st.Layer.Format,
		Scale:        st.Scale.MetersPerPixel(),
		ScaleLabel:   st.Scale.String(),
		BurntIn:      st.Context.BurntIn,
		Measurements: len(st.Context.Measurements),
		AutoArea:     st.AutoAreaAvailable(),
	}
	if !st.Context.Empty() {
		info.Context = make(map[string]string, len(st.Context.Fields))
		for _, f := range st.Context.Fields {
			info.Context[f.Name] = f.Value
			info.Fields = append(info.Fields, f.Name)
		}
	}
	return info
}

func writeInfo(w io.Writer, info ImageInfo, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(info), "encode info")
	}

	fmt.Fprintf(w, "File:   %s\n", info.Path)
	fmt.Fprintf(w, "Size:   %d x %d (%s)\n", info.Width, info.Height, info.Format)
	fmt.Fprintf(w, "Scale:  %s\n", info.ScaleLabel)
	for _, name := range info.Fields {
		fmt.Fprintf(w, "%-13s %s\n", name+":", info.Context[name])
	}
	if info.Measurements > 0 {
		mode := "editable"
		if info.BurntIn {
			mode = "burnt in"
		}
		fmt.Fprintf(w, "Measurements: %d (%s)\n", info.Measurements, mode)
	}
	return nil
}
