package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tvrelay/work/config"
)

func TestObfuscateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"http://example.com/secret/stream.m3u8?token=abc", "http://example.com/***?***"},
		{"https://example.com/", "https://example.com"},
		{"http://[2001:db8::1]:8080/live.m3u8#frag", "http://[2001:db8::1]:8080/***#***"},
		{"http://bad host/%zz", "***OBFUSCATED***"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObfuscateURL(tt.in), tt.in)
	}
}

func TestLogURL(t *testing.T) {
	raw := "http://example.com/a.m3u8?k=v"

	assert.Equal(t, raw, LogURL(nil, raw))
	assert.Equal(t, raw, LogURL(&config.Config{}, raw))
	assert.Equal(t, "http://example.com/***?***", LogURL(&config.Config{ObfuscateUrls: true}, raw))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "1.5 MiB", FormatBytes(3*512*1024))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "5m", FormatDuration(5*time.Minute+10*time.Second))
	assert.Equal(t, "3h 12m", FormatDuration(3*time.Hour+12*time.Minute))
	assert.Equal(t, "2d 1h", FormatDuration(49*time.Hour))
}
