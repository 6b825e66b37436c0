package snapshot

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psidex/malsim/internal/graphs"
	"github.com/psidex/malsim/internal/lib"
	"github.com/psidex/malsim/internal/sim"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func requireChrome(t *testing.T) {
	t.Helper()
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no chrome binary found")
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Positive(t, opts.Width)
	assert.Positive(t, opts.Height)
	assert.Greater(t, opts.Timeout, opts.Settle)
}

func TestCaptureFile(t *testing.T) {
	requireChrome(t)

	rnd := sim.NewSource(1)
	g := sim.Generate(20, sim.Virus, rnd)
	e := graphs.NewECharts(false)
	e.Observe(graphs.Frame{Reset: true, Strain: sim.Virus, Graph: g, Series: sim.NewTimeSeries(g)})

	dir := t.TempDir()
	base := filepath.Join(dir, "report")
	require.NoError(t, e.RenderToFile(base))

	opts := DefaultOptions()
	opts.Settle = 100 * time.Millisecond
	png := filepath.Join(dir, "report.png")
	require.NoError(t, CaptureFile(context.Background(), lib.DiscardLogger(), base+".html", png, opts))

	data, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}
