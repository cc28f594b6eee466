package trello

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient("test-key", "test-token", WithBaseURL(server.URL))
}

func TestBoards(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/members/me/boards", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))
		fmt.Fprint(w, `[{"id": "b1", "name": "Inbox", "url": "https://trello.com/b/b1"}]`)
	})

	boards, err := client.Boards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "Inbox", boards[0].Name)
}

func TestLists(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/boards/b1/lists", r.URL.Path)
		fmt.Fprint(w, `[{"id": "l1", "name": "Todo"}, {"id": "l2", "name": "Done"}]`)
	})

	lists, err := client.Lists(context.Background(), "b1")
	require.NoError(t, err)
	assert.Len(t, lists, 2)
}

func TestCards(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1/lists/l1/cards", r.URL.Path)
		fmt.Fprint(w, `[{"id": "c1", "name": "Ship it", "desc": "soon"}]`)
	})

	cards, err := client.Cards(context.Background(), "l1")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Ship it", cards[0].Name)
}

func TestCreateCard(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/1/cards", r.URL.Path)
		assert.Equal(t, "l1", r.URL.Query().Get("idList"))
		assert.Equal(t, "New card", r.URL.Query().Get("name"))
		fmt.Fprint(w, `{"id": "c9", "name": "New card", "url": "https://trello.com/c/c9"}`)
	})

	card, err := client.CreateCard(context.Background(), "l1", "New card", "details")
	require.NoError(t, err)
	assert.Equal(t, "c9", card.ID)
}

func TestAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, "invalid key")
	})

	_, err := client.Boards(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid key")
}
