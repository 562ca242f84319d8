package gateway

import "strings"

// Markers of the host-key notices ssh prepends to remote command output.
var bannerMarkers = []string{"Warning", "Permanently"}

// IsBannerLine reports whether line is an ssh host-key banner.
func IsBannerLine(line string) bool {
	for _, marker := range bannerMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}

	return false
}

// FilterBannerLines drops banner lines and trims the rest, keeping blank-free
// entries in their original order.
func FilterBannerLines(lines []string) []string {
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if IsBannerLine(line) {
			continue
		}

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

// NormalizeMetadata strips banner lines from raw remote text, joins what is
// left and trims surrounding whitespace.
func NormalizeMetadata(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var b strings.Builder

	for _, line := range lines {
		if IsBannerLine(line) {
			continue
		}

		b.WriteString(line)
	}

	return strings.TrimSpace(b.String())
}

// StripBanners removes banner lines from multi-line remote text and keeps the
// remaining lines separated by newlines.
func StripBanners(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		if !IsBannerLine(line) {
			kept = append(kept, line)
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}
