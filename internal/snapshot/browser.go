// Package snapshot captures the rendered analysis result as a PNG for the
// PDF report, in headless Chromium when available.
package snapshot

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// ReportSelector is the element captured from the result page.
const ReportSelector = "#report-section"

// Screenshot opens url in headless Chromium and captures the element
// matching selector as PNG.
func Screenshot(url, selector string) ([]byte, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: 1280, Height: 900},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	if _, err = page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return nil, fmt.Errorf("could not navigate: %w", err)
	}

	png, err := page.Locator(selector).Screenshot(playwright.LocatorScreenshotOptions{
		Timeout: playwright.Float(10000),
	})
	if err != nil {
		return nil, fmt.Errorf("could not capture %s: %w", selector, err)
	}

	return png, nil
}

// ScreenshotHTML serves html locally and captures the report section.
func ScreenshotHTML(html []byte) ([]byte, error) {
	srv, err := serve(html, "report.html")
	if err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}
	defer srv.Stop()

	return Screenshot(srv.URL("report.html"), ReportSelector)
}

// Install installs the Chromium build playwright drives.
func Install() error {
	return playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	})
}

// IsAvailable checks if playwright and its browsers are installed.
func IsAvailable() bool {
	pw, err := playwright.Run()
	if err != nil {
		return false
	}
	pw.Stop()
	return true
}
