package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChannelOmitsEmptyAttributes(t *testing.T) {
	ch := NewChannel("CNN", "http://a/1.m3u8", "", "")
	assert.Nil(t, ch.Logo)
	assert.Nil(t, ch.Group)

	b, err := json.Marshal(ch)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"CNN","url":"http://a/1.m3u8"}`, string(b))
}

func TestSyntheticChannel(t *testing.T) {
	manifest := &ParseResult{Kind: KindStreamManifest, Channels: []Channel{NewChannel("Live", "http://a/x.m3u8", "", "")}}
	ch, ok := manifest.SyntheticChannel()
	require.True(t, ok)
	assert.Equal(t, "http://a/x.m3u8", ch.URL)
	assert.True(t, manifest.IsStreamManifest())

	directory := &ParseResult{Kind: KindChannelDirectory, Channels: manifest.Channels}
	_, ok = directory.SyntheticChannel()
	assert.False(t, ok)
	assert.False(t, directory.IsStreamManifest())
}
