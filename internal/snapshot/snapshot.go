package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Options controls how a page is captured.
type Options struct {
	Width  int64
	Height int64
	// Settle is how long to wait after load for charts to finish animating.
	Settle time.Duration
	// Timeout bounds the whole capture including browser start up.
	Timeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Width:   1280,
		Height:  1100,
		Settle:  1500 * time.Millisecond,
		Timeout: 30 * time.Second,
	}
}

// Capture loads pageURL in headless Chrome and returns a PNG of the whole page. Script
// exceptions on the page are logged, not returned.
func Capture(ctx context.Context, logger *slog.Logger, pageURL string, opts Options) ([]byte, error) {
	timeoutCtx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	// Create context and ensure any long running Chrome tasks are cancelled when we exit.
	chromeCtx, cancel := chromedp.NewContext(timeoutCtx)
	defer cancel()

	chromedp.ListenTarget(chromeCtx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *runtime.EventExceptionThrown:
			logger.Warn("page exception", "url", pageURL, "text", ev.ExceptionDetails.Text)
		}
	})

	var buf []byte
	err := chromedp.Run(chromeCtx,
		emulation.SetDeviceMetricsOverride(opts.Width, opts.Height, 1, false),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(opts.Settle),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", pageURL, err)
	}

	logger.Debug("Captured page", "url", pageURL, "bytes", len(buf))
	return buf, nil
}

// CaptureFile renders a local HTML file, such as an ECharts report, to pngPath.
func CaptureFile(ctx context.Context, logger *slog.Logger, htmlPath, pngPath string, opts Options) error {
	abs, err := filepath.Abs(htmlPath)
	if err != nil {
		return err
	}
	pageURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()

	png, err := Capture(ctx, logger, pageURL, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(pngPath, png, 0o644)
}
