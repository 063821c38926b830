package pdf

import (
	"os"
	"path/filepath"
	"testing"
)

// fontDirs are searched for a Hebrew-capable TTF pair when PDF_FONT_DIR is
// not set.
var fontDirs = []struct {
	dir, regular, bold string
}{
	{"/usr/share/fonts/truetype/dejavu", "DejaVuSans.ttf", "DejaVuSans-Bold.ttf"},
	{"/usr/share/fonts/TTF", "DejaVuSans.ttf", "DejaVuSans-Bold.ttf"},
	{"/usr/share/fonts/truetype/noto", "NotoSansHebrew-Regular.ttf", "NotoSansHebrew-Bold.ttf"},
}

// UnicodeFontOptions returns options for the UTF-8 font path, skipping the
// test when no font pair is installed.
func UnicodeFontOptions(t *testing.T) Options {
	t.Helper()

	if dir := os.Getenv("PDF_FONT_DIR"); dir != "" {
		regular := envOr("PDF_FONT_REGULAR", "NotoSansHebrew-Regular.ttf")
		bold := envOr("PDF_FONT_BOLD", "NotoSansHebrew-Bold.ttf")

		if exists(dir, regular) && exists(dir, bold) {
			return Options{FontDir: dir, FontRegular: regular, FontBold: bold}
		}
	}

	for _, f := range fontDirs {
		if exists(f.dir, f.regular) && exists(f.dir, f.bold) {
			return Options{FontDir: f.dir, FontRegular: f.regular, FontBold: f.bold}
		}
	}

	t.Skip("no UTF-8 TTF fonts available; set PDF_FONT_DIR")

	return Options{}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func exists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
