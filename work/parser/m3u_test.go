package parser

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tvrelay/work/types"
)

func TestParseSingleEntry(t *testing.T) {
	content := "#EXTINF:-1 tvg-logo=\"http://x/l.png\" group-title=\"News\",CNN\nhttp://[2001:db8::1]/live.m3u8"

	res, err := Parse(content, "http://origin/list.m3u")
	require.NoError(t, err)

	assert.Equal(t, types.KindChannelDirectory, res.Kind)
	require.Len(t, res.Channels, 1)
	ch := res.Channels[0]
	assert.Equal(t, "CNN", ch.Name)
	assert.Equal(t, "http://[2001:db8::1]/live.m3u8", ch.URL)
	require.NotNil(t, ch.Logo)
	assert.Equal(t, "http://x/l.png", *ch.Logo)
	require.NotNil(t, ch.Group)
	assert.Equal(t, "News", *ch.Group)
}

func TestParseStreamManifest(t *testing.T) {
	content := "#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:10\n#EXTINF:9.0,\nseg0.ts"

	res, err := Parse(content, "http://origin/live/index.m3u8")
	require.NoError(t, err)

	assert.True(t, res.IsStreamManifest())
	ch, ok := res.SyntheticChannel()
	require.True(t, ok)
	assert.Equal(t, LiveStreamName, ch.Name)
	assert.Equal(t, "http://origin/live/index.m3u8", ch.URL)
	assert.Nil(t, ch.Logo)
	require.NotNil(t, ch.Group)
	assert.Equal(t, StreamGroup, *ch.Group)
}

func TestClassificationDominatesExtraction(t *testing.T) {
	content := "#EXTM3U\n" +
		"#EXTINF:-1,One\nhttp://a/1.m3u8\n" +
		"#EXTINF:-1,Two\nhttp://a/2.m3u8\n" +
		"#EXT-X-TARGETDURATION:6\n"

	res, err := Parse(content, "src")
	require.NoError(t, err)
	assert.True(t, res.IsStreamManifest())
	assert.Len(t, res.Channels, 1)
	assert.Equal(t, "src", res.Channels[0].URL)
}

func TestIsStreamManifest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"version tag", "#EXTM3U\n#EXT-X-VERSION:3", true},
		{"target duration", "#EXT-X-TARGETDURATION:10", true},
		{"extinf with ts segment", "#EXTINF:10,\nchunk.ts", true},
		{"ts without extinf", "http://a/b.ts", false},
		{"channel directory", "#EXTM3U\n#EXTINF:-1,A\nhttp://a/a.m3u8", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStreamManifest(tt.content))
		})
	}
}

func TestParseNoEntries(t *testing.T) {
	inputs := []string{
		"",
		"#EXTM3U\n",
		"just some text\nhttp://lonely/url.m3u8\n",
		"#EXTM3U\n#EXTINF:-1,Dangling\n\n\n",
		"#EXTINF:-1,A\n#EXTINF:-1,B\n",
	}
	for _, in := range inputs {
		_, err := Parse(in, "local")
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrNoEntriesFound), in)

		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "local", pe.SourceURL)
	}
}

func TestParseSkipsMalformedPairs(t *testing.T) {
	content := "#EXTM3U\r\n" +
		"#EXTINF:-1,Broken\r\n" +
		"#EXTINF:-1 group-title=\"Kids\",Cartoons\r\n" +
		"#EXTVLCOPT:http-user-agent=VLC\r\n" +
		"\r\n" +
		"http://a/cartoons.m3u8\r\n" +
		"#EXTINF:-1,\r\n" +
		"http://a/unnamed.m3u8\r\n" +
		"#EXTINF:-1,Tail\r\n"

	res, err := Parse(content, "local")
	require.NoError(t, err)
	require.Len(t, res.Channels, 2)

	assert.Equal(t, "Cartoons", res.Channels[0].Name)
	assert.Equal(t, "http://a/cartoons.m3u8", res.Channels[0].URL)
	require.NotNil(t, res.Channels[0].Group)
	assert.Equal(t, "Kids", *res.Channels[0].Group)

	assert.Equal(t, UnnamedChannel, res.Channels[1].Name)
	assert.Equal(t, "http://a/unnamed.m3u8", res.Channels[1].URL)
}

func TestParseKeepsDuplicates(t *testing.T) {
	content := "#EXTINF:-1,Same\nhttp://a/x.m3u8\n#EXTINF:-1,Same\nhttp://a/x.m3u8\n"

	res, err := Parse(content, "local")
	require.NoError(t, err)
	assert.Len(t, res.Channels, 2)
}

func TestParseEXTINF(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		line        string
		name        string
		logo, group *string
	}{
		{`#EXTINF:-1 tvg-logo="l.png" group-title="G",Name`, "Name", str("l.png"), str("G")},
		{`#EXTINF:-1,  Spaced Name  `, "Spaced Name", nil, nil},
		{`#EXTINF:-1 tvg-logo="unterminated,Name`, "Name", nil, nil},
		{`#EXTINF:-1 group-title=News,Name`, "Name", nil, nil},
		{`#EXTINF:-1 tvg-logo=""`, UnnamedChannel, str(""), nil},
		{`#EXTINF:-1 tvg-id="a",First, Second`, "First, Second", nil, nil},
	}
	for _, tt := range tests {
		name, logo, group := ParseEXTINF(tt.line)
		assert.Equal(t, tt.name, name, tt.line)
		assert.Equal(t, tt.logo, logo, tt.line)
		assert.Equal(t, tt.group, group, tt.line)
	}
}

func TestParseKeepsEmptyQuotedAttributes(t *testing.T) {
	content := "#EXTM3U\n#EXTINF:-1 tvg-logo=\"\" group-title=\"\",Blank\nhttp://a/blank.m3u8\n"

	res, err := Parse(content, "local")
	require.NoError(t, err)
	require.Len(t, res.Channels, 1)

	ch := res.Channels[0]
	require.NotNil(t, ch.Logo)
	require.NotNil(t, ch.Group)
	assert.Empty(t, *ch.Logo)

	b, err := json.Marshal(ch)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Blank","url":"http://a/blank.m3u8","logo":"","group":""}`, string(b))
}
