package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"sem-view/internal/annotation"
	"sem-view/internal/app"
	"sem-view/internal/segment"
	"sem-view/pkg/colorutil"
	"sem-view/pkg/geometry"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	detectPolygon string
	detectSteps   []string
	detectJSON    bool
)

// DetectResult is one reported auto area state.
type DetectResult struct {
	Step   string       `json:"step"`
	Found  bool         `json:"found"`
	Label  string       `json:"label,omitempty"`
	Color  string       `json:"color,omitempty"`
	Points [][2]float64 `json:"points,omitempty"`
}

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect a bright region inside a rough polygon",
	Long: `Run auto area detection: the rough polygon selects the search area, the
brightest connected region inside it is outlined and measured. Refinement
steps add to or trim the search area and re-run detection.

Points are "x,y" pairs separated by ";".

Examples:
  semview detect sample.tif --polygon "10,10;90,10;90,90;10,90"
  semview detect sample.tif --polygon "10,10;90,10;90,90" \
      --step "add:80,80;120,80;120,120" --step "trim:10,10;30,10;30,30"`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVar(&detectPolygon, "polygon", "", "rough polygon \"x,y;x,y;...\"")
	detectCmd.Flags().StringArrayVar(&detectSteps, "step", nil, "refinement \"add:<points>\" or \"trim:<points>\" (repeatable)")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "output as JSON")
	_ = detectCmd.MarkFlagRequired("polygon")
}

func runDetect(cmd *cobra.Command, args []string) error {
	polygon, err := parsePoints(detectPolygon)
	if err != nil {
		return errors.Wrap(err, "--polygon")
	}
	type step struct {
		mode segment.Mode
		pts  []geometry.Point2D
	}
	steps := make([]step, 0, len(detectSteps))
	for _, s := range detectSteps {
		mode, pts, err := parseStep(s)
		if err != nil {
			return errors.Wrapf(err, "--step %q", s)
		}
		steps = append(steps, step{mode, pts})
	}

	st := app.NewState(segment.New())
	if !st.AutoAreaAvailable() {
		return segment.ErrUnavailable
	}
	if err := st.LoadImage(args[0]); err != nil {
		return err
	}

	var results []DetectResult
	m, ok, err := st.StartAutoArea(polygon)
	if err != nil {
		return err
	}
	results = append(results, newDetectResult("start", m, ok))

	for _, s := range steps {
		m, ok, err := st.RefineAutoArea(s.mode, s.pts)
		if err != nil {
			return err
		}
		results = append(results, newDetectResult(s.mode.String(), m, ok))
	}
	st.FinishAutoArea()

	return writeDetect(cmd.OutOrStdout(), results, detectJSON)
}

func newDetectResult(step string, m annotation.Measurement, ok bool) DetectResult {
	r := DetectResult{Step: step, Found: ok}
	if !ok {
		return r
	}
	r.Label = m.Label
	r.Color = colorutil.Hex(m.Color)
	r.Points = make([][2]float64, len(m.Points))
	for i, p := range m.Points {
		r.Points[i] = p.Pair()
	}
	return r
}

func writeDetect(w io.Writer, results []DetectResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(results), "encode results")
	}
	for _, r := range results {
		if !r.Found {
			fmt.Fprintf(w, "%-6s no region\n", r.Step)
			continue
		}
		fmt.Fprintf(w, "%-6s %s (%d points, %s)\n", r.Step, r.Label, len(r.Points), r.Color)
	}
	return nil
}

// parsePoints parses "x,y;x,y;...". Empty segments are ignored.
func parsePoints(s string) ([]geometry.Point2D, error) {
	var pts []geometry.Point2D
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, errors.Errorf("point %q: want x,y", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "point %q", pair)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "point %q", pair)
		}
		pts = append(pts, geometry.Point2D{X: x, Y: y})
	}
	if len(pts) < 3 {
		return nil, errors.Errorf("need at least 3 points, got %d", len(pts))
	}
	return pts, nil
}

// parseStep parses "add:<points>" or "trim:<points>".
func parseStep(s string) (segment.Mode, []geometry.Point2D, error) {
	name, points, ok := strings.Cut(s, ":")
	if !ok {
		return 0, nil, errors.New("want add:<points> or trim:<points>")
	}
	var mode segment.Mode
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "add":
		mode = segment.ModeAdd
	case "trim":
		mode = segment.ModeTrim
	default:
		return 0, nil, errors.Errorf("unknown mode %q", name)
	}
	pts, err := parsePoints(points)
	if err != nil {
		return 0, nil, err
	}
	return mode, pts, nil
}
