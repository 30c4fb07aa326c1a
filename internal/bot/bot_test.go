package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/frontdesk/internal/orchestrator"
	"go.uber.org/zap"
)

type stubResponder struct {
	mu      sync.Mutex
	inbound []orchestrator.Inbound
}

func (s *stubResponder) Handle(ctx context.Context, in orchestrator.Inbound) orchestrator.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbound = append(s.inbound, in)
	return orchestrator.Reply{Text: "echo: " + in.Text, Kind: orchestrator.ReplyChat}
}

type botAPI struct {
	mu   sync.Mutex
	sent []string
}

func (a *botAPI) serve(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Desk","username":"desk_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			a.mu.Lock()
			a.sent = append(a.sent, r.FormValue("text"))
			a.mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":2,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
		}
	}))
}

func newTestBot(t *testing.T, responder Responder) (*Bot, *botAPI) {
	t.Helper()
	api := &botAPI{}
	srv := api.serve(t)
	t.Cleanup(srv.Close)

	b, err := New("123:abc", srv.URL+"/bot%s/%s", "proj-1", responder, zap.NewNop())
	require.NoError(t, err)
	return b, api
}

func command(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: 42},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}},
	}
}

func TestHandleMessageForwardsText(t *testing.T) {
	responder := &stubResponder{}
	b, api := newTestBot(t, responder)

	b.handleMessage(context.Background(), &tgbotapi.Message{Text: "are you open sunday?", Chat: &tgbotapi.Chat{ID: 42}})

	require.Len(t, responder.inbound, 1)
	assert.Equal(t, orchestrator.Inbound{ProjectID: "proj-1", ChatID: "42", Channel: "telegram", Text: "are you open sunday?"}, responder.inbound[0])
	assert.Equal(t, []string{"echo: are you open sunday?"}, api.sent)
}

func TestHandleCommands(t *testing.T) {
	responder := &stubResponder{}
	b, api := newTestBot(t, responder)

	b.handleMessage(context.Background(), command("/start"))
	b.handleMessage(context.Background(), command("/help"))
	b.handleMessage(context.Background(), command("/status"))
	b.handleMessage(context.Background(), command("/dance"))

	require.Len(t, api.sent, 4)
	assert.Contains(t, api.sent[0], "front desk assistant")
	assert.Contains(t, api.sent[1], "/status")
	assert.Equal(t, "echo: /status", api.sent[2])
	assert.Contains(t, api.sent[3], "Unknown command")
	require.Len(t, responder.inbound, 1)
}

func TestHandleMessageIgnoresBots(t *testing.T) {
	responder := &stubResponder{}
	b, api := newTestBot(t, responder)

	b.handleMessage(context.Background(), &tgbotapi.Message{
		Text: "hi",
		Chat: &tgbotapi.Chat{ID: 42},
		From: &tgbotapi.User{ID: 9, IsBot: true},
	})
	assert.Empty(t, responder.inbound)
	assert.Empty(t, api.sent)
}
