package cli

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"sem-view/internal/envelope"
	"sem-view/internal/prefs"
	"sem-view/internal/segment"
	"sem-view/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePoints(t *testing.T) {
	pts, err := parsePoints(" 1,2; 3.5 , 4 ;5,6;")
	require.NoError(t, err)
	assert.Equal(t, []geometry.Point2D{{X: 1, Y: 2}, {X: 3.5, Y: 4}, {X: 5, Y: 6}}, pts)

	_, err = parsePoints("1,2;3,4")
	assert.Error(t, err)
	_, err = parsePoints("1,2;3;5,6")
	assert.Error(t, err)
	_, err = parsePoints("1,a;3,4;5,6")
	assert.Error(t, err)
}

func TestParseStep(t *testing.T) {
	mode, pts, err := parseStep("add:0,0;1,0;1,1")
	require.NoError(t, err)
	assert.Equal(t, segment.ModeAdd, mode)
	assert.Len(t, pts, 3)

	mode, _, err = parseStep("TRIM:0,0;1,0;1,1")
	require.NoError(t, err)
	assert.Equal(t, segment.ModeTrim, mode)

	_, _, err = parseStep("grow:0,0;1,0;1,1")
	assert.Error(t, err)
	_, _, err = parseStep("0,0;1,0;1,1")
	assert.Error(t, err)
}

func TestWriteInfoText(t *testing.T) {
	var buf bytes.Buffer
	err := writeInfo(&buf, ImageInfo{
		Path:         "a.tif",
		Width:        1024,
		Height:       768,
		Format:       "tiff",
		ScaleLabel:   "3.17 nm/px",
		Context:      map[string]string{"Tool": "Gemini", "Mag": "500 x"},
		Fields:       []string{"Tool", "Mag"},
		Measurements: 2,
		BurntIn:      true,
	}, false)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Scale:  3.17 nm/px")
	assert.Contains(t, out, "Tool:         Gemini")
	assert.Contains(t, out, "Measurements: 2 (burnt in)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Tool")), bytes.Index(buf.Bytes(), []byte("Mag")))
}

func TestWriteDetect(t *testing.T) {
	results := []DetectResult{
		{Step: "start", Found: true, Label: "12.00 µm²", Color: "#ffff00", Points: [][2]float64{{0, 0}, {1, 0}, {1, 1}}},
		{Step: "trim", Found: false},
	}
	var buf bytes.Buffer
	require.NoError(t, writeDetect(&buf, results, false))
	assert.Equal(t, "start  12.00 µm² (3 points, #ffff00)\ntrim   no region\n", buf.String())

	buf.Reset()
	require.NoError(t, writeDetect(&buf, results, true))
	var decoded []DetectResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, results, decoded)
}

func TestWriteEnvelopeRestores(t *testing.T) {
	start, end := [2]float64{0, 0}, [2]float64{300, 400}
	doc := &envelope.Document{
		Description: envelope.DefaultDescription,
		Measurements: []envelope.MeasurementRecord{
			{Type: "Distance", Value: "500.00", Unit: "nm", Label: "500.00 nm", Color: "#ffff00"},
		},
		Annotations: []envelope.AnnotationRecord{
			{Type: envelope.TypeDistance, Start: &start, End: &end, Color: "#ffff00"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeEnvelope(&buf, doc, 1e-9))
	out := buf.String()
	assert.Contains(t, out, "Description: Annotated Image")
	assert.Contains(t, out, "Editable annotations: 1 of 1 restored")
	assert.Contains(t, out, "Distance 500.00 nm")
}

func TestInfoCommandOnPNG(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 6))
	img.SetGray(3, 3, color.Gray{Y: 255})
	path := filepath.Join(t.TempDir(), "plain.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	cfg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfg)
	t.Setenv("HOME", cfg)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"info", "--json", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		infoJSON = false
	})
	require.NoError(t, rootCmd.Execute())

	var info ImageInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, 8, info.Width)
	assert.Equal(t, 6, info.Height)
	assert.Equal(t, "Unknown", info.ScaleLabel)
	assert.Empty(t, info.Context)

	if runtime.GOOS == "linux" {
		assert.Equal(t, filepath.Dir(path), prefs.LoadFrom(filepath.Join(cfg, "sem-view", "preferences.json")).LastDir())
	}
}

func TestResavePreview(t *testing.T) {
	img := image.NewGray16(image.Rect(0, 0, 4, 4))
	path := filepath.Join(t.TempDir(), "plain.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	var buf bytes.Buffer
	require.NoError(t, runResave(&buf, path, true))
	out := buf.String()
	assert.Contains(t, out, "Page: 4 x 4 RGB, burnt in: true")
	assert.Contains(t, out, "SEM tag: 0 bytes")
	assert.Contains(t, out, `"is_burnt_in":true`)
	assert.NotContains(t, out, `"annotations"`)
}
