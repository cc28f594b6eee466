package archive

import (
	"net/url"
	"path"
	"strings"

	"github.com/skillforge/skillet/pkg/twitter"
)

// FormattedMedia is one entry in the flattened media list of a formatted
// tweet. For video-like media, URL points at the highest-bitrate MP4 variant.
type FormattedMedia struct {
	Index        int    `json:"index"`
	Kind         string `json:"kind"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Bitrate      int    `json:"bitrate,omitempty"`
}

// FormattedTweet is the derived, human/agent-friendly projection of a raw
// tweet document
type FormattedTweet struct {
	ID        string           `json:"id"`
	Text      string           `json:"text"`
	Author    string           `json:"author"`
	Handle    string           `json:"handle"`
	CreatedAt string           `json:"created_at"`
	Likes     int              `json:"likes"`
	Replies   int              `json:"replies"`
	Media     []FormattedMedia `json:"media"`
}

// Format derives the formatted projection from a typed tweet
func Format(t twitter.Tweet) FormattedTweet {
	formatted := FormattedTweet{
		ID:        t.IDStr,
		Text:      t.Text,
		Author:    t.User.Name,
		Handle:    t.User.ScreenName,
		CreatedAt: t.CreatedAt,
		Likes:     t.FavoriteCount,
		Replies:   t.ConversationCount,
	}

	for i, m := range t.MediaDetails {
		fm := FormattedMedia{Index: i, Kind: m.Type}

		if m.IsVideo() {
			fm.ThumbnailURL = m.MediaURLHTTPS
			if best, ok := m.BestVariant(); ok {
				fm.URL = best.URL
				fm.Bitrate = best.Bitrate
			}
		} else {
			fm.URL = m.MediaURLHTTPS
		}

		formatted.Media = append(formatted.Media, fm)
	}

	return formatted
}

// extFromURL infers a file extension from the URL's path, defaulting to jpg
// when absent or ambiguous
func extFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "jpg"
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
	if ext == "" {
		return "jpg"
	}
	return ext
}

const excerptLimit = 100

// excerpt returns a short prefix of the tweet text for quick identification
func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "…"
}
