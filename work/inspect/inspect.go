package inspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/grafov/m3u8"
)

// ErrUndecodable is returned when content is not a strict HLS playlist.
var ErrUndecodable = errors.New("content is not a decodable HLS playlist")

// Playlist types reported in Report.Type.
const (
	TypeMaster = "master"
	TypeMedia  = "media"
)

// Variant is one rendition of a master playlist.
type Variant struct {
	URI        string `json:"uri"`
	Bandwidth  uint32 `json:"bandwidth,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Codecs     string `json:"codecs,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Report summarises a decoded playlist. It is informational only; playlist
// classification never depends on it.
type Report struct {
	Type           string    `json:"type"`
	Variants       []Variant `json:"variants,omitempty"`
	Segments       int       `json:"segments"`
	TargetDuration float64   `json:"targetDuration,omitempty"`
	EndList        bool      `json:"endList"`
}

// Inspect decodes content as an HLS playlist and reports its shape.
func Inspect(content string) (*Report, error) {
	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(content), true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	switch listType {
	case m3u8.MASTER:
		master := playlist.(*m3u8.MasterPlaylist)
		report := &Report{Type: TypeMaster, EndList: true}
		for _, v := range master.Variants {
			if v == nil {
				continue
			}
			report.Variants = append(report.Variants, Variant{
				URI:        v.URI,
				Bandwidth:  v.Bandwidth,
				Resolution: v.Resolution,
				Codecs:     v.Codecs,
				Name:       v.Name,
			})
		}
		return report, nil

	case m3u8.MEDIA:
		media := playlist.(*m3u8.MediaPlaylist)
		return &Report{
			Type:           TypeMedia,
			Segments:       int(media.Count()),
			TargetDuration: float64(media.TargetDuration),
			EndList:        media.Closed,
		}, nil
	}

	return nil, fmt.Errorf("%w: unknown playlist type", ErrUndecodable)
}
