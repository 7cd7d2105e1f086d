package batch

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprite-normalizer/internal/config"
	"sprite-normalizer/internal/imageio"
	"sprite-normalizer/internal/postprocess"
)

func TestReferenceHeight(t *testing.T) {
	t.Run("reference file", func(t *testing.T) {
		dir := t.TempDir()
		writeSprite(t, dir, "a_walk.png", 50, 100, image.Rect(0, 0, 50, 90))
		writeSprite(t, dir, "standing.png", 50, 100, image.Rect(10, 20, 40, 100))

		ref, err := ReferenceHeight(dir, "standing.png", nil, postprocess.DefaultAlphaThreshold, 0)
		require.NoError(t, err)
		assert.Equal(t, Reference{File: "standing.png", Height: 80, Bounded: true}, ref)
	})

	t.Run("falls back to first sprite", func(t *testing.T) {
		dir := t.TempDir()
		writeSprite(t, dir, "walk.png", 50, 100, image.Rect(0, 40, 50, 100))
		writeSprite(t, dir, "idle.png", 50, 100, image.Rect(0, 30, 50, 100))

		ref, err := ReferenceHeight(dir, "standing.png", nil, postprocess.DefaultAlphaThreshold, 0)
		require.NoError(t, err)
		assert.Equal(t, "idle.png", ref.File)
		assert.Equal(t, 70, ref.Height)
	})

	t.Run("transparent reference uses raw height", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, imageio.Save(filepath.Join(dir, "standing.png"), image.NewNRGBA(image.Rect(0, 0, 30, 77)), imageio.PNG))

		ref, err := ReferenceHeight(dir, "standing.png", nil, postprocess.DefaultAlphaThreshold, 0)
		require.NoError(t, err)
		assert.Equal(t, 77, ref.Height)
		assert.False(t, ref.Bounded)
	})

	t.Run("despeckled reference", func(t *testing.T) {
		dir := t.TempDir()
		writeSpeckled(t, dir, "standing.png")

		ref, err := ReferenceHeight(dir, "standing.png", nil, postprocess.DefaultAlphaThreshold, 0)
		require.NoError(t, err)
		assert.Equal(t, 125, ref.Height, "speck stretches raw bounds")

		ref, err = ReferenceHeight(dir, "standing.png", nil, postprocess.DefaultAlphaThreshold, 0.01)
		require.NoError(t, err)
		assert.Equal(t, 100, ref.Height)
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := ReferenceHeight(t.TempDir(), "standing.png", nil, postprocess.DefaultAlphaThreshold, 0)
		assert.Error(t, err)
	})

	t.Run("corrupt reference", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "standing.png", []byte("nope"))
		_, err := ReferenceHeight(dir, "standing.png", nil, postprocess.DefaultAlphaThreshold, 0)
		assert.Error(t, err)
	})
}

// writeSpeckled saves a 60×140 sprite with a 40×100 body at (10,30) and a
// single stray pixel at (55,5).
func writeSpeckled(t *testing.T, dir, name string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 60, 140))
	for y := 30; y < 130; y++ {
		for x := 10; x < 50; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 90, G: 60, B: 200, A: 255})
		}
	}
	img.SetNRGBA(55, 5, color.NRGBA{A: 255})
	require.NoError(t, imageio.Save(filepath.Join(dir, name), img, imageio.PNG))
}

// rosterFixture builds two characters of different sizes under base.
func rosterFixture(t *testing.T) string {
	base := t.TempDir()
	elon := filepath.Join(base, "elon")
	trump := filepath.Join(base, "trump")
	require.NoError(t, os.MkdirAll(elon, 0755))
	require.NoError(t, os.MkdirAll(trump, 0755))

	writeSprite(t, elon, "standing.png", 80, 140, image.Rect(10, 20, 70, 140))
	writeSprite(t, elon, "crouch.png", 80, 140, image.Rect(10, 60, 70, 140))
	writeSprite(t, trump, "standing.png", 100, 200, image.Rect(10, 0, 90, 200))
	writeSprite(t, trump, "jump.png", 100, 200, image.Rect(10, 20, 90, 150))
	return base
}

func rosterConfig(base string, mutate func(*config.Config)) config.Config {
	cfg := config.Config{
		BaseDir: base,
		Characters: []config.Character{
			{Name: "elon", Input: "elon", Output: "elon_normalized"},
			{Name: "ghost", Input: "ghost", Output: "ghost_normalized"},
			{Name: "trump", Input: "trump", Output: "trump_normalized"},
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	cfg.Resolve(config.Flags{})
	return cfg
}

func TestRunRoster_Self(t *testing.T) {
	logs := captureLog(t)
	base := rosterFixture(t)
	cfg := rosterConfig(base, nil)
	require.NoError(t, cfg.Validate())

	reports, err := RunRoster(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "elon", reports[0].Name)
	assert.Equal(t, 120, reports[0].TargetHeight)
	assert.NoError(t, reports[0].Err)

	assert.True(t, reports[1].Skipped)
	assert.Contains(t, logs.String(), "Skipping ghost")

	assert.Equal(t, 200, reports[2].TargetHeight)

	elonDoc, err := ReadDocument(filepath.Join(base, "elon_normalized", config.DefaultMetadataFile))
	require.NoError(t, err)
	assert.Equal(t, 180, elonDoc["standing"].CanvasWidth)
	assert.Equal(t, 1.0, elonDoc["standing"].ScaleFactor)
	crouchBase := 120.0 / 80.0
	assert.Equal(t, crouchBase*0.7, elonDoc["crouch"].ScaleFactor)

	trumpDoc, err := ReadDocument(filepath.Join(base, "trump_normalized", config.DefaultMetadataFile))
	require.NoError(t, err)
	assert.Equal(t, 300, trumpDoc["standing"].CanvasWidth)
}

func TestRunRoster_DespeckledReferenceKeepsUnitScale(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "ryu")
	require.NoError(t, os.MkdirAll(dir, 0755))
	writeSpeckled(t, dir, "standing.png")

	cfg := config.Config{
		BaseDir:        base,
		Characters:     []config.Character{{Name: "ryu", Input: "ryu"}},
		DespeckleRatio: 0.01,
	}
	cfg.Resolve(config.Flags{})
	require.NoError(t, cfg.Validate())

	reports, err := RunRoster(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 100, reports[0].TargetHeight)

	md := reports[0].Report.Document["standing"]
	assert.Equal(t, 100, md.CropHeight)
	assert.Equal(t, 1.0, md.ScaleFactor)
	assert.Equal(t, 100, md.NewHeight)
}

func TestRunRoster_Cross(t *testing.T) {
	base := rosterFixture(t)
	cfg := rosterConfig(base, func(c *config.Config) { c.ReferenceCharacter = "elon" })
	require.Equal(t, config.ReferenceCross, cfg.ReferencePolicy)

	reports, err := RunRoster(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, 120, reports[0].TargetHeight)
	assert.Equal(t, 120, reports[2].TargetHeight)

	trump := reports[2].Report.Document["standing"]
	assert.Equal(t, 120.0/200.0, trump.ScaleFactor)
	assert.Equal(t, 120, trump.NewHeight)
	assert.Equal(t, 180, trump.CanvasWidth)
	assert.Equal(t, 144, trump.CanvasHeight)
	assert.Equal(t, reports[0].Report.Document["standing"].CanvasWidth, trump.CanvasWidth)
}

func TestRunRoster_CrossMissingReference(t *testing.T) {
	base := rosterFixture(t)
	require.NoError(t, os.RemoveAll(filepath.Join(base, "elon")))
	cfg := rosterConfig(base, func(c *config.Config) { c.ReferenceCharacter = "elon" })

	_, err := RunRoster(context.Background(), cfg)
	assert.Error(t, err)
	assert.NoDirExists(t, filepath.Join(base, "trump_normalized"))
}

func TestRunRoster_Fixed(t *testing.T) {
	base := rosterFixture(t)
	cfg := rosterConfig(base, func(c *config.Config) { c.TargetHeight = 64 })
	require.Equal(t, config.ReferenceFixed, cfg.ReferencePolicy)

	reports, err := RunRoster(context.Background(), cfg)
	require.NoError(t, err)
	for _, r := range []CharacterReport{reports[0], reports[2]} {
		assert.Equal(t, 64, r.TargetHeight)
		assert.Equal(t, 96, r.Report.Document["standing"].CanvasWidth)
		assert.Equal(t, 64, r.Report.Document["standing"].NewHeight)
	}
}

func TestRunRoster_CropMode(t *testing.T) {
	base := rosterFixture(t)
	cfg := rosterConfig(base, func(c *config.Config) { c.Mode = postprocess.ModeCrop })

	reports, err := RunRoster(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, reports[0].TargetHeight)
	md := reports[0].Report.Document["standing"]
	assert.Equal(t, 60, md.CropWidth)
	assert.Equal(t, 120, md.CropHeight)
	assert.Equal(t, md.CropWidth, md.CanvasWidth)
}

func TestRunRoster_Cancelled(t *testing.T) {
	base := rosterFixture(t)
	cfg := rosterConfig(base, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunRoster(ctx, cfg)
	assert.ErrorIs(t, err, context.Canceled)
}
