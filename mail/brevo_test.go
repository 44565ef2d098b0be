package mail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brevoStub struct {
	calls    atomic.Int32
	lastBody sendRequest
	lastKey  string
}

func newBrevoServer(t *testing.T, stub *brevoStub, handle func(n int32, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := stub.calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/smtp/email", r.URL.Path)
		stub.lastKey = r.Header.Get("api-key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&stub.lastBody))
		handle(n, w)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestBrevo(url string, filter *Filter) *Brevo {
	return NewBrevo(BrevoOptions{
		APIKey:     "test-key",
		BaseURL:    url,
		Sender:     Recipient{Email: "budget@selego.co", Name: "Budget Tracker"},
		Filter:     filter,
		RetryDelay: time.Millisecond,
	})
}

func jsonReply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

var testMessage = Message{
	To:      []Recipient{{Email: "jane@selego.co", Name: "Jane"}},
	Subject: "Attention au budget - Website",
	HTML:    "<p>hello</p>",
}

func TestBrevoSend(t *testing.T) {
	stub := &brevoStub{}
	srv := newBrevoServer(t, stub, func(_ int32, w http.ResponseWriter) {
		jsonReply(w, http.StatusCreated, `{"messageId":"<abc@smtp-relay>"}`)
	})

	err := newTestBrevo(srv.URL, nil).Send(context.Background(), testMessage)
	require.NoError(t, err)

	assert.EqualValues(t, 1, stub.calls.Load())
	assert.Equal(t, "test-key", stub.lastKey)
	assert.Equal(t, sendRequest{
		Sender:      Recipient{Email: "budget@selego.co", Name: "Budget Tracker"},
		To:          testMessage.To,
		Subject:     testMessage.Subject,
		HTMLContent: testMessage.HTML,
	}, stub.lastBody)
}

func TestBrevoAcceptsEmptyNoContent(t *testing.T) {
	stub := &brevoStub{}
	srv := newBrevoServer(t, stub, func(_ int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, newTestBrevo(srv.URL, nil).Send(context.Background(), testMessage))
}

func TestBrevoRetriesGatewayErrors(t *testing.T) {
	stub := &brevoStub{}
	srv := newBrevoServer(t, stub, func(n int32, w http.ResponseWriter) {
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		jsonReply(w, http.StatusCreated, `{"messageId":"<retry>"}`)
	})

	require.NoError(t, newTestBrevo(srv.URL, nil).Send(context.Background(), testMessage))
	assert.EqualValues(t, 3, stub.calls.Load())
}

func TestBrevoGivesUpAfterThreeTries(t *testing.T) {
	stub := &brevoStub{}
	srv := newBrevoServer(t, stub, func(_ int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := newTestBrevo(srv.URL, nil).Send(context.Background(), testMessage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.EqualValues(t, 3, stub.calls.Load())
}

func TestBrevoErrorCode(t *testing.T) {
	stub := &brevoStub{}
	srv := newBrevoServer(t, stub, func(_ int32, w http.ResponseWriter) {
		jsonReply(w, http.StatusBadRequest, `{"code":"invalid_parameter","message":"sender is invalid"}`)
	})

	err := newTestBrevo(srv.URL, nil).Send(context.Background(), testMessage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_parameter")
	assert.Contains(t, err.Error(), "sender is invalid")
	assert.EqualValues(t, 1, stub.calls.Load(), "client errors are not retried")
}

func TestBrevoWithoutKeyDoesNotCall(t *testing.T) {
	stub := &brevoStub{}
	srv := newBrevoServer(t, stub, func(_ int32, w http.ResponseWriter) {
		w.WriteHeader(http.StatusCreated)
	})

	b := NewBrevo(BrevoOptions{BaseURL: srv.URL})
	require.NoError(t, b.Send(context.Background(), testMessage))
	assert.Zero(t, stub.calls.Load())
}

func TestBrevoFiltersRecipientsOutsideProduction(t *testing.T) {
	stub := &brevoStub{}
	srv := newBrevoServer(t, stub, func(_ int32, w http.ResponseWriter) {
		jsonReply(w, http.StatusCreated, `{"messageId":"<filtered>"}`)
	})
	filter, err := NewFilter(`selego\.co`, false)
	require.NoError(t, err)

	msg := testMessage
	msg.To = []Recipient{{Email: "client@example.com"}, {Email: "dev@selego.co"}}
	require.NoError(t, newTestBrevo(srv.URL, filter).Send(context.Background(), msg))
	assert.Equal(t, []Recipient{{Email: "dev@selego.co"}}, stub.lastBody.To)

	msg.To = []Recipient{{Email: "client@example.com"}}
	require.NoError(t, newTestBrevo(srv.URL, filter).Send(context.Background(), msg))
	assert.EqualValues(t, 1, stub.calls.Load(), "emptied recipient list skips the call")
}
