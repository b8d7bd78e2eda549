package botcheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peyda/internal/pkg/botcheck"
)

func TestIsBot(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		bot       bool
	}{
		{
			name:      "googlebot",
			userAgent: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			bot:       true,
		},
		{
			name:      "bingbot",
			userAgent: "Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)",
			bot:       true,
		},
		{
			name:      "curl",
			userAgent: "curl/8.5.0",
			bot:       true,
		},
		{
			name:      "python requests",
			userAgent: "python-requests/2.31.0",
			bot:       true,
		},
		{
			name:      "headless chrome",
			userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) HeadlessChrome/126.0.0.0 Safari/537.36",
			bot:       true,
		},
		{
			name:      "generic crawler",
			userAgent: "SomeCompany-Crawler/1.0",
			bot:       true,
		},
		{
			name:      "desktop chrome",
			userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			bot:       false,
		},
		{
			name:      "mobile safari",
			userAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Mobile/15E148 Safari/604.1",
			bot:       false,
		},
		{
			name:      "empty user agent",
			userAgent: "",
			bot:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.bot, botcheck.IsBot(tt.userAgent))
		})
	}
}

func TestDetectBot(t *testing.T) {
	entry := botcheck.DetectBot("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	require.NotNil(t, entry)
	assert.Equal(t, "Googlebot", entry.Name)
	assert.Equal(t, "Search bot", entry.Category)

	assert.Nil(t, botcheck.DetectBot("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"))
}
