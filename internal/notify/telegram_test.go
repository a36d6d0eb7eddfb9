package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type capturedPost struct {
	path   string
	chatID string
	text   string
}

func newTelegramServer(t *testing.T) (*httptest.Server, func() []capturedPost) {
	t.Helper()
	var mu sync.Mutex
	var posts []capturedPost
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		posts = append(posts, capturedPost{
			path:   r.URL.Path,
			chatID: r.PostForm.Get("chat_id"),
			text:   r.PostForm.Get("text"),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedPost {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedPost(nil), posts...)
	}
}

func TestTelegramRoutesByCategory(t *testing.T) {
	srv, posts := newTelegramServer(t)
	tg := NewTelegram(TelegramConfig{
		Token:      "tok",
		StockChat:  "stock",
		FilmChat:   "film",
		ClientChat: "client",
		BaseURL:    srv.URL,
	}, zaptest.NewLogger(t))

	ctx := context.Background()
	require.NoError(t, tg.Send(ctx, Message{Category: CategoryLowStock, Text: "low"}))
	require.NoError(t, tg.Send(ctx, Message{Category: CategoryReadyStock, Text: "ready"}))
	require.NoError(t, tg.Send(ctx, Message{Category: CategoryClientOrder, Text: "client"}))
	require.NoError(t, tg.Send(ctx, Message{Category: CategoryInfo, Text: "info"}))

	got := posts()
	require.Len(t, got, 4)
	assert.Equal(t, "/bottok/sendMessage", got[0].path)
	assert.Equal(t, []string{"stock", "film", "client", "stock"},
		[]string{got[0].chatID, got[1].chatID, got[2].chatID, got[3].chatID})
	assert.Equal(t, "ready", got[1].text)
}

func TestTelegramUnconfiguredIsNoop(t *testing.T) {
	srv, posts := newTelegramServer(t)

	noToken := NewTelegram(TelegramConfig{StockChat: "stock", BaseURL: srv.URL}, zaptest.NewLogger(t))
	require.NoError(t, noToken.Send(context.Background(), Message{Category: CategoryLowStock, Text: "x"}))

	noChat := NewTelegram(TelegramConfig{Token: "tok", BaseURL: srv.URL}, zaptest.NewLogger(t))
	require.NoError(t, noChat.Send(context.Background(), Message{Category: CategoryClientOrder, Text: "x"}))

	assert.Empty(t, posts())
}

func TestTelegramSwallowsDeliveryErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tg := NewTelegram(TelegramConfig{Token: "tok", StockChat: "s", BaseURL: srv.URL}, zaptest.NewLogger(t))
	assert.NoError(t, tg.Send(context.Background(), Message{Category: CategoryInfo, Text: "x"}))
}
