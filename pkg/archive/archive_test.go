package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/skillet/pkg/twitter"
)

const photoVideoTweet = `{
	"id_str": "42",
	"text": "a photo and a video",
	"created_at": "2024-05-01T12:00:00.000Z",
	"user": {"name": "Ada", "screen_name": "ada"},
	"favorite_count": 7,
	"conversation_count": 2,
	"mediaDetails": [
		{"type": "photo", "media_url_https": "https://pbs.example.com/photo.jpg"},
		{
			"type": "video",
			"media_url_https": "https://pbs.example.com/thumb.jpg",
			"video_info": {"variants": [
				{"bitrate": 500000, "content_type": "video/mp4", "url": "https://video.example.com/360.mp4"},
				{"bitrate": 1200000, "content_type": "video/mp4", "url": "https://video.example.com/720.mp4"}
			]}
		}
	]
}`

type fakeFetcher struct {
	doc       *twitter.Document
	lookupErr error
	lookups   int
	downloads []string
	failURL   string
}

func (f *fakeFetcher) Lookup(_ context.Context, _ string) (*twitter.Document, error) {
	f.lookups++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.doc, nil
}

func (f *fakeFetcher) Download(_ context.Context, url string) ([]byte, error) {
	if url == f.failURL {
		return nil, errors.New("connection reset")
	}
	f.downloads = append(f.downloads, url)
	return []byte("bytes:" + url), nil
}

func newTestArchiver(t *testing.T, rawTweet string) (*Archiver, *fakeFetcher, string) {
	t.Helper()
	root := t.TempDir()
	fetcher := &fakeFetcher{doc: mustDocument(t, rawTweet)}
	return NewArchiver(root, fetcher), fetcher, root
}

func TestArchivePhotoAndVideo(t *testing.T) {
	archiver, fetcher, root := newTestArchiver(t, photoVideoTweet)
	ctx := context.Background()

	meta, err := archiver.Archive(ctx, "42", Options{})
	require.NoError(t, err)

	// 720p wins over 360p; thumbnail precedes the variant
	assert.Equal(t, []string{"media_0.jpg", "media_1_thumb.jpg", "media_1.mp4"}, meta.MediaFiles)
	assert.Equal(t, "42", meta.TweetID)
	assert.Equal(t, "https://x.com/ada/status/42", meta.URL)
	assert.Equal(t, "a photo and a video", meta.TextExcerpt)
	assert.False(t, meta.ArchivedAt.IsZero())

	dir := filepath.Join(root, "archives", "42")
	assert.Equal(t, dir, meta.Dir)

	video, err := os.ReadFile(filepath.Join(dir, "media_1.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "bytes:https://video.example.com/720.mp4", string(video))

	for _, name := range []string{"object.json", "object_formatted.json", "metadata.json", "media_0.jpg", "media_1_thumb.jpg"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	assert.True(t, archiver.IsArchived("42"))
	assert.Equal(t, 1, fetcher.lookups)
	assert.Len(t, fetcher.downloads, 3)
}

func TestArchiveIdempotence(t *testing.T) {
	archiver, fetcher, _ := newTestArchiver(t, photoVideoTweet)
	ctx := context.Background()

	first, err := archiver.Archive(ctx, "42", Options{})
	require.NoError(t, err)

	second, err := archiver.Archive(ctx, "42", Options{})
	require.NoError(t, err)

	// Second call is a pure short-circuit: no lookup, no downloads
	assert.Equal(t, 1, fetcher.lookups)
	assert.Len(t, fetcher.downloads, 3)
	assert.Equal(t, first, second)
}

func TestArchiveForceRedoesEverything(t *testing.T) {
	archiver, fetcher, _ := newTestArchiver(t, photoVideoTweet)
	ctx := context.Background()

	_, err := archiver.Archive(ctx, "42", Options{})
	require.NoError(t, err)

	meta, err := archiver.Archive(ctx, "42", Options{Force: true})
	require.NoError(t, err)

	assert.Equal(t, 2, fetcher.lookups)
	assert.Len(t, fetcher.downloads, 6)
	assert.Equal(t, []string{"media_0.jpg", "media_1_thumb.jpg", "media_1.mp4"}, meta.MediaFiles)
}

func TestArchiveAllOrNothingMarker(t *testing.T) {
	archiver, fetcher, _ := newTestArchiver(t, photoVideoTweet)
	ctx := context.Background()

	fetcher.failURL = "https://video.example.com/720.mp4"
	_, err := archiver.Archive(ctx, "42", Options{})
	require.Error(t, err)

	// Some media were fetched but the marker was never written
	assert.False(t, archiver.IsArchived("42"))

	// Next call redoes the whole operation rather than resuming
	fetcher.failURL = ""
	downloadsBefore := len(fetcher.downloads)
	meta, err := archiver.Archive(ctx, "42", Options{})
	require.NoError(t, err)
	assert.True(t, archiver.IsArchived("42"))
	assert.Len(t, fetcher.downloads, downloadsBefore+3)
	assert.Equal(t, []string{"media_0.jpg", "media_1_thumb.jpg", "media_1.mp4"}, meta.MediaFiles)
}

func TestArchiveDeterministicNaming(t *testing.T) {
	const photoVideoPhoto = `{
		"id_str": "7",
		"text": "three media items",
		"user": {"screen_name": "ada"},
		"mediaDetails": [
			{"type": "photo", "media_url_https": "https://pbs.example.com/a.png"},
			{
				"type": "video",
				"media_url_https": "https://pbs.example.com/v.jpg",
				"video_info": {"variants": [{"bitrate": 1, "content_type": "video/mp4", "url": "https://video.example.com/v.mp4"}]}
			},
			{"type": "photo", "media_url_https": "https://pbs.example.com/b.jpg"}
		]
	}`

	archiver, _, _ := newTestArchiver(t, photoVideoPhoto)

	meta, err := archiver.Archive(context.Background(), "7", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"media_0.png", "media_1_thumb.jpg", "media_1.mp4", "media_2.jpg"}, meta.MediaFiles)

	// Stable across repeated (forced) runs given identical input
	again, err := archiver.Archive(context.Background(), "7", Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, meta.MediaFiles, again.MediaFiles)
}

func TestArchiveDestOverride(t *testing.T) {
	archiver, _, _ := newTestArchiver(t, photoVideoTweet)
	dest := filepath.Join(t.TempDir(), "bundle")

	meta, err := archiver.Archive(context.Background(), "42", Options{Dest: dest})
	require.NoError(t, err)
	assert.Equal(t, dest, meta.Dir)
	assert.FileExists(t, filepath.Join(dest, "metadata.json"))

	// The default location was never touched
	assert.False(t, archiver.IsArchived("42"))
}

func TestArchiveUsesObjectCache(t *testing.T) {
	archiver, fetcher, _ := newTestArchiver(t, photoVideoTweet)

	require.NoError(t, archiver.Cache().Put("42", mustDocument(t, photoVideoTweet)))

	_, err := archiver.Archive(context.Background(), "42", Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, fetcher.lookups)
}

func TestArchiveForceBypassesObjectCache(t *testing.T) {
	archiver, fetcher, _ := newTestArchiver(t, photoVideoTweet)

	stale := `{"id_str": "42", "text": "stale cached copy", "user": {"screen_name": "ada"}}`
	require.NoError(t, archiver.Cache().Put("42", mustDocument(t, stale)))

	meta, err := archiver.Archive(context.Background(), "42", Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.lookups)
	assert.Equal(t, "a photo and a video", meta.TextExcerpt)

	// The refetched document replaced the stale cache entry
	doc, ok := archiver.Cache().Get("42")
	require.True(t, ok)
	assert.Equal(t, "a photo and a video", doc.Tweet.Text)
}

func TestArchiveNotFoundPropagates(t *testing.T) {
	root := t.TempDir()
	fetcher := &fakeFetcher{lookupErr: errors.Wrap(twitter.ErrNotFound, "tweet 999999999")}
	archiver := NewArchiver(root, fetcher)

	_, err := archiver.Archive(context.Background(), "999999999", Options{})
	require.Error(t, err)
	assert.True(t, twitter.IsNotFound(err))
	assert.False(t, archiver.IsArchived("999999999"))
}

func TestReadMetadata(t *testing.T) {
	archiver, _, _ := newTestArchiver(t, photoVideoTweet)

	_, err := archiver.ReadMetadata("42")
	assert.Error(t, err)

	written, err := archiver.Archive(context.Background(), "42", Options{})
	require.NoError(t, err)

	read, err := archiver.ReadMetadata("42")
	require.NoError(t, err)
	assert.Equal(t, written.MediaFiles, read.MediaFiles)
	assert.Equal(t, written.TweetID, read.TweetID)
}

func TestFormat(t *testing.T) {
	doc := mustDocument(t, photoVideoTweet)
	formatted := Format(doc.Tweet)

	assert.Equal(t, "42", formatted.ID)
	assert.Equal(t, "Ada", formatted.Author)
	assert.Equal(t, "ada", formatted.Handle)
	assert.Equal(t, 7, formatted.Likes)
	assert.Equal(t, 2, formatted.Replies)
	require.Len(t, formatted.Media, 2)

	photo := formatted.Media[0]
	assert.Equal(t, twitter.MediaTypePhoto, photo.Kind)
	assert.Equal(t, "https://pbs.example.com/photo.jpg", photo.URL)
	assert.Empty(t, photo.ThumbnailURL)

	video := formatted.Media[1]
	assert.Equal(t, twitter.MediaTypeVideo, video.Kind)
	assert.Equal(t, "https://video.example.com/720.mp4", video.URL)
	assert.Equal(t, 1200000, video.Bitrate)
	assert.Equal(t, "https://pbs.example.com/thumb.jpg", video.ThumbnailURL)
}

func TestExtFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://pbs.example.com/img.jpg", "jpg"},
		{"https://pbs.example.com/img.PNG", "png"},
		{"https://pbs.example.com/img", "jpg"},
		{"https://pbs.example.com/img.webp?name=large", "webp"},
		{"", "jpg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extFromURL(tt.url), tt.url)
	}
}
