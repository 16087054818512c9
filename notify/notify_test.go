package notify_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Travis-Britz/duckdns"
	"github.com/Travis-Britz/duckdns/notify"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = duckdns.Notification{
	Title:   duckdns.Title,
	Message: "Successfully updated Public IP",
	Expiry:  duckdns.DefaultExpiry,
}

func TestMultiDeliversToEverySink(t *testing.T) {
	var got []string
	record := func(name string, err error) duckdns.Notifier {
		return duckdns.NotifierFunc(func(_ context.Context, n duckdns.Notification) error {
			got = append(got, name+":"+n.Message)
			return err
		})
	}
	errA, errC := errors.New("a is down"), errors.New("c is down")

	err := notify.Multi(record("a", errA), record("b", nil), record("c", errC)).Notify(context.Background(), sample)

	assert.Equal(t, []string{
		"a:Successfully updated Public IP",
		"b:Successfully updated Public IP",
		"c:Successfully updated Public IP",
	}, got)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
}

func TestMultiEmpty(t *testing.T) {
	assert.NoError(t, notify.Multi().Notify(context.Background(), sample))
}

func TestLog(t *testing.T) {
	logger, hook := test.NewNullLogger()

	require.NoError(t, notify.Log(logger).Notify(context.Background(), sample))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, sample.Message, entry.Message)
	assert.Equal(t, duckdns.Title, entry.Data["title"])
	assert.Equal(t, duckdns.DefaultExpiry, entry.Data["expiry"])
}

type fakeTelegram struct {
	mu       sync.Mutex
	failures int
	texts    []string
	chatIDs  []string
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/bottest-token/getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"duck","username":"duckbot"}}`)
	case "/bottest-token/sendMessage":
		if f.failures > 0 {
			f.failures--
			fmt.Fprint(w, `{"ok":false,"error_code":500,"description":"Internal Server Error"}`)
			return
		}
		_ = r.ParseForm()
		f.texts = append(f.texts, r.PostForm.Get("text"))
		f.chatIDs = append(f.chatIDs, r.PostForm.Get("chat_id"))
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func newTelegram(t *testing.T, f *fakeTelegram) *notify.Telegram {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	tg, err := notify.NewTelegramWithClient("test-token", 42, srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	return tg
}

func TestTelegramSendsTitleAndMessage(t *testing.T) {
	f := &fakeTelegram{}
	tg := newTelegram(t, f)

	require.NoError(t, tg.Notify(context.Background(), sample))

	assert.Equal(t, []string{"Duck DNS Updater\nSuccessfully updated Public IP"}, f.texts)
	assert.Equal(t, []string{"42"}, f.chatIDs)
}

func TestTelegramRetries(t *testing.T) {
	f := &fakeTelegram{failures: 1}
	tg := newTelegram(t, f)

	require.NoError(t, tg.Notify(context.Background(), sample))
	assert.Len(t, f.texts, 1)
}

func TestTelegramGivesUp(t *testing.T) {
	f := &fakeTelegram{failures: 10}
	tg := newTelegram(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.Error(t, tg.Notify(ctx, sample))
	assert.Empty(t, f.texts)
}

func TestNewTelegramRequiresTokenAndChat(t *testing.T) {
	_, err := notify.NewTelegram("", 42)
	assert.Error(t, err)
	_, err = notify.NewTelegram("token", 0)
	assert.Error(t, err)
}
