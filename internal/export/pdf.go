// export печатает HTML-страницы писем в PDF через headless Chrome и
// (опционально) выгружает результат в S3-совместимое хранилище.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/pribylovaa/go-resume-portfolio/internal/config"
	"github.com/pribylovaa/go-resume-portfolio/pkg/log"
)

// A4 в дюймах.
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// PDFRenderer печатает HTML в PDF. Каждый вызов поднимает свой экземпляр браузера.
type PDFRenderer struct {
	chromePath string
	timeout    time.Duration
}

func NewPDFRenderer(cfg config.ExportConfig) *PDFRenderer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &PDFRenderer{chromePath: cfg.ChromePath, timeout: timeout}
}

// RenderPDF печатает страницу html в A4 (с учётом @page из CSS) с фоном.
func (r *PDFRenderer) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	const op = "internal/export/RenderPDF"

	start := time.Now()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	runCtx, cancelRun := context.WithTimeout(cctx, r.timeout)
	defer cancelRun()

	// Страница открывается из файла, чтобы относительные ресурсы и @page работали как при печати из браузера.
	tmpDir, err := os.MkdirTemp("", "cover-letter-")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, html, 0o600); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var pdf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+filepath.ToSlash(htmlPath)),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("pdf_rendered",
		slog.String("op", op),
		slog.Int("bytes", len(pdf)),
		slog.Duration("dur", time.Since(start)),
	)

	return pdf, nil
}
