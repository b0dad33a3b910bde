package sources

import "tvrelay/work/types"

const demoGroup = "Demo Channels"

// DemoChannels returns the channels behind the TEST_DATA source: public
// HLS test streams useful for checking a player end to end.
func DemoChannels() []types.Channel {
	return []types.Channel{
		types.NewChannel("Test Video 1 - Demo",
			"https://upyun.luckly-mjw.cn/Assets/media-source/example/media/index.m3u8",
			"https://picsum.photos/100/100?1", demoGroup),
		types.NewChannel("Test Video 2 - Big Buck Bunny",
			"https://test-streams.mux.dev/x36xhzz/x36xhzz.m3u8",
			"https://picsum.photos/100/100?2", demoGroup),
		types.NewChannel("Test Video 3 - Tears of Steel",
			"https://demo.unified-streaming.com/k8s/features/stable/video/tears-of-steel/tears-of-steel.ism/.m3u8",
			"https://picsum.photos/100/100?3", demoGroup),
	}
}
