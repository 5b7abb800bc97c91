package utils

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// ScreenshotDebugger captures full-page screenshots of pages the automation
// could not handle, for offline diagnosis.
type ScreenshotDebugger struct {
	outputDir string
	log       *slog.Logger
}

func NewScreenshotDebugger(log *slog.Logger) *ScreenshotDebugger {
	dir := filepath.Join(".", "logs", "screenshots")
	os.MkdirAll(dir, 0755)
	return &ScreenshotDebugger{outputDir: dir, log: log}
}

// Capture writes a timestamped screenshot. Failures are logged, never fatal.
func (s *ScreenshotDebugger) Capture(page playwright.Page, name, message string) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.png", name, timestamp))
	s.log.Warn(message, slog.String("screenshot", path))

	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		s.log.Warn("failed to capture screenshot", slog.String("err", err.Error()))
	}
}
