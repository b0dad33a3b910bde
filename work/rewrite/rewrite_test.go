package rewrite

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const origin = "http://127.0.0.1:18080"

func TestBaseURL(t *testing.T) {
	tests := map[string]string{
		"http://host/path/list.m3u8": "http://host/path/",
		"http://host/":               "http://host/",
		"http://host":                "http://",
		"list.m3u8":                  "list.m3u8",
		"":                           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, BaseURL(in), in)
	}
}

func TestRewriteResolvesRelativeLines(t *testing.T) {
	res := Rewrite("#EXTINF:10,\nseg1.ts", "https://host/path/list.m3u8", origin)

	assert.Equal(t, "#EXTINF:10,\nhttps://host/path/seg1.ts", res.Content)
	assert.Equal(t, 0, res.Rewritten)
	assert.Equal(t, "https://host/path/", res.BaseURL)
}

func TestRewriteInsecureRelativeLine(t *testing.T) {
	res := Rewrite("#EXTINF:10,\nseg1.ts", "http://host/path/list.m3u8", origin)

	lines := strings.Split(res.Content, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, 1, res.Rewritten)
	assert.Equal(t, origin+"/proxy?url="+url.QueryEscape("http://host/path/seg1.ts"), lines[1])

	u, err := url.Parse(lines[1])
	require.NoError(t, err)
	assert.Equal(t, "http://host/path/seg1.ts", u.Query().Get("url"))
}

func TestRewriteIPv6Lines(t *testing.T) {
	content := "#EXTM3U\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=800000\n" +
		"https://[2001:db8::1]/hi/index.m3u8\n" +
		"https://cdn.example.com/lo/index.m3u8\n"

	res := Rewrite(content, "https://cdn.example.com/master.m3u8", origin)

	lines := strings.Split(res.Content, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, 1, res.Rewritten)
	assert.True(t, strings.HasPrefix(lines[2], origin+"/proxy?url="))
	assert.Equal(t, "https://cdn.example.com/lo/index.m3u8", lines[3])
	assert.Equal(t, "", lines[4])
}

func TestRewriteAbsoluteSecureIsUnchanged(t *testing.T) {
	content := "#EXTM3U\r\n#EXTINF:6,\r\nhttps://a.example/1.ts\r\n#EXTINF:6,\r\nhttps://a.example/2.ts"

	res := Rewrite(content, "https://a.example/list.m3u8", origin)

	assert.Equal(t, 0, res.Rewritten)
	assert.Equal(t, strings.ReplaceAll(content, "\r\n", "\n"), res.Content)
}

func TestRewriteOnlyComments(t *testing.T) {
	content := "#EXTM3U\n#EXT-X-ENDLIST\n"

	res := Rewrite(content, "http://host/list.m3u8", origin)

	assert.Equal(t, 0, res.Rewritten)
	assert.Equal(t, content, res.Content)
}

func TestRewriteIsDeterministic(t *testing.T) {
	content := "#EXTM3U\nseg0.ts\nhttp://other/seg1.ts\n"

	first := Rewrite(content, "http://host/a/list.m3u8", origin)
	second := Rewrite(content, "http://host/a/list.m3u8", origin)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, first.Rewritten)
}

func TestProxyLinkTrimsOrigin(t *testing.T) {
	assert.Equal(t, "http://relay/proxy?url=http%3A%2F%2Fa%2Fb", ProxyLink("http://relay/", "http://a/b"))
}
