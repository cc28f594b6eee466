// Package twitter provides a client for Twitter's public syndication endpoint.
// Tweets are fetched as raw JSON documents; a typed minimal shape covers the
// fields the archiver needs while the rest of the payload passes through
// untouched.
package twitter

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Media type tags as they appear in syndication payloads
const (
	MediaTypePhoto       = "photo"
	MediaTypeVideo       = "video"
	MediaTypeAnimatedGIF = "animated_gif"
)

// Variant is a single quality variant of a video-like media item
type Variant struct {
	Bitrate     int    `json:"bitrate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// VideoInfo holds the variant list for video and animated_gif media
type VideoInfo struct {
	Variants []Variant `json:"variants"`
}

// MediaDetail describes one attached media item
type MediaDetail struct {
	Type          string     `json:"type"`
	MediaURLHTTPS string     `json:"media_url_https"`
	VideoInfo     *VideoInfo `json:"video_info,omitempty"`
}

// IsVideo reports whether the media item is video-like (video or animated gif)
func (m MediaDetail) IsVideo() bool {
	return m.Type == MediaTypeVideo || m.Type == MediaTypeAnimatedGIF
}

// BestVariant returns the highest-bitrate MP4 variant, or false when the
// media item has no usable variant
func (m MediaDetail) BestVariant() (Variant, bool) {
	if m.VideoInfo == nil {
		return Variant{}, false
	}

	best := Variant{Bitrate: -1}
	for _, v := range m.VideoInfo.Variants {
		if v.ContentType != "video/mp4" {
			continue
		}
		if v.Bitrate > best.Bitrate {
			best = v
		}
	}

	if best.Bitrate < 0 {
		return Variant{}, false
	}
	return best, true
}

// User carries tweet author attribution
type User struct {
	Name            string `json:"name"`
	ScreenName      string `json:"screen_name"`
	ProfileImageURL string `json:"profile_image_url_https"`
	Verified        bool   `json:"verified"`
}

// Tweet is the typed minimal shape of a syndication tweet document
type Tweet struct {
	TypeName          string        `json:"__typename"`
	IDStr             string        `json:"id_str"`
	Text              string        `json:"text"`
	CreatedAt         string        `json:"created_at"`
	User              User          `json:"user"`
	FavoriteCount     int           `json:"favorite_count"`
	ConversationCount int           `json:"conversation_count"`
	MediaDetails      []MediaDetail `json:"mediaDetails"`
}

// Document wraps a fetched tweet: the typed minimal fields plus the verbatim
// payload, which is what gets cached and archived
type Document struct {
	Tweet Tweet
	Raw   json.RawMessage
}

// ParseDocument decodes a syndication payload. Empty or unparsable bodies
// yield ErrMalformed so callers get an actionable message instead of a bare
// JSON error. Tombstones (deleted tweets served with HTTP 200) map to
// ErrNotFound.
func ParseDocument(data []byte) (*Document, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.Wrap(ErrMalformed, "empty response body")
	}

	var tweet Tweet
	if err := json.Unmarshal(data, &tweet); err != nil {
		return nil, errors.Wrapf(ErrMalformed, "decoding tweet document: %v", err)
	}

	if tweet.TypeName == "TweetTombstone" {
		return nil, errors.Wrap(ErrNotFound, "tweet has been deleted")
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)

	return &Document{Tweet: tweet, Raw: raw}, nil
}

// TweetID extracts the numeric tweet ID from a bare ID or a status URL
// (twitter.com, x.com and mobile variants)
func TweetID(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", errors.New("empty tweet ID or URL")
	}

	if isDigits(arg) {
		return arg, nil
	}

	u, err := url.Parse(arg)
	if err != nil {
		return "", errors.Wrapf(err, "parsing tweet URL %q", arg)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if (seg == "status" || seg == "statuses") && i+1 < len(segments) {
			id := segments[i+1]
			if isDigits(id) {
				return id, nil
			}
		}
	}

	return "", errors.Errorf("could not extract tweet ID from %q", arg)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
