// Package export writes completed demands out as plain text or PDF. PDF
// rendering goes through headless Chromium: the demand text becomes a small
// HTML page and the browser prints it to A4.
package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/mvillagomez/demandas/internal/textnorm"
)

// WriteTXT writes the demand to path with control characters stripped, so
// the file opens cleanly in any editor.
func WriteTXT(path, document string) error {
	clean := textnorm.StripControlChars(document)
	if err := os.WriteFile(path, []byte(clean), 0o644); err != nil {
		return fmt.Errorf("write txt: %w", err)
	}
	return nil
}

// ChromiumPDFRenderer renders demand text to PDF via a headless browser.
type ChromiumPDFRenderer struct {
	chromePath string
}

func NewChromiumPDFRenderer() *ChromiumPDFRenderer {
	return &ChromiumPDFRenderer{chromePath: detectChromePath()}
}

// Render produces the PDF bytes for one demand. title lands in the header
// of every page.
func (r *ChromiumPDFRenderer) Render(ctx context.Context, title, document string) ([]byte, error) {
	htmlDoc, err := buildHTML(title, document)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(timeoutCtx, append(chromedp.DefaultExecAllocatorOptions[:], opts...)...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdf []byte
	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))
	if err := chromedp.Run(taskCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			footer := `<div style="width:100%;text-align:center;font-size:9px;color:#666;">` +
				`Página <span class="pageNumber"></span> de <span class="totalPages"></span></div>`
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithDisplayHeaderFooter(true).
				WithHeaderTemplate(`<div></div>`).
				WithFooterTemplate(footer).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.75).
				WithMarginBottom(0.75).
				WithMarginLeft(0.8).
				WithMarginRight(0.8).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = out
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return pdf, nil
}

// buildHTML converts the demand to printable HTML. Markdown conversion runs
// first so bold markers from LLM output render; plain demand text passes
// through as paragraphs.
func buildHTML(title, document string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(textnorm.StripControlChars(document)), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>" + html.EscapeString(title) + "</title>" +
		"<style>" +
		"html,body{-webkit-print-color-adjust:exact !important;print-color-adjust:exact !important;} " +
		"body{font-family:'Times New Roman',serif;font-size:12pt;line-height:1.6;color:#111;background:#fff;} " +
		"h1{font-size:14pt;text-align:center;text-transform:uppercase;} " +
		"p{text-align:justify;margin:0 0 0.7em 0;white-space:pre-wrap;} " +
		"@media print{ @page{size:A4;margin:0;} }" +
		"</style></head><body>" +
		"<h1>" + html.EscapeString(title) + "</h1>" +
		content.String() +
		"</body></html>", nil
}

func detectChromePath() string {
	candidates := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
