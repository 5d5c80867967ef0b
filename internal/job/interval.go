package job

import (
	"strings"
	"time"
)

// Interval returns the status polling interval for a job. Longer texts and
// non-English synthesis take longer server side, so they are polled less often.
func Interval(language string, textLength int) time.Duration {
	if IsEnglish(language) {
		if textLength < 500 {
			return 10 * time.Second
		}
		return 30 * time.Second
	}

	switch {
	case textLength < 100:
		return 20 * time.Second
	case textLength < 500:
		return 30 * time.Second
	default:
		return 45 * time.Second
	}
}

// IsEnglish reports whether a language label such as "English (en)", "en"
// or "en-US" names English.
func IsEnglish(language string) bool {
	l := strings.ToLower(strings.TrimSpace(language))
	if strings.Contains(l, "english") {
		return true
	}
	return l == "en" || strings.HasPrefix(l, "en-") || strings.HasPrefix(l, "en_")
}
