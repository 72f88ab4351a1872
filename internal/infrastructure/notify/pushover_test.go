package notify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradewall/tradewall/internal/domain"
	"github.com/tradewall/tradewall/internal/infrastructure/notify"
)

func TestSend(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"token":   r.FormValue("token"),
			"user":    r.FormValue("user"),
			"title":   r.FormValue("title"),
			"message": r.FormValue("message"),
		}
		w.Write([]byte(`{"status":1,"request":"abc123"}`))
	}))
	defer srv.Close()

	p := notify.NewPushoverWithEndpoint("tok", "usr", srv.URL)
	err := p.Send(context.Background(), "TradeWall", "BTC crossed above $100")
	require.NoError(t, err)

	assert.Equal(t, "tok", gotForm["token"])
	assert.Equal(t, "usr", gotForm["user"])
	assert.Equal(t, "TradeWall", gotForm["title"])
	assert.Equal(t, "BTC crossed above $100", gotForm["message"])
}

func TestSendAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":0,"errors":["user key is invalid"]}`))
	}))
	defer srv.Close()

	p := notify.NewPushoverWithEndpoint("tok", "bad", srv.URL)
	err := p.Send(context.Background(), "TradeWall", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDeliveryFailure)
	assert.Contains(t, err.Error(), "user key is invalid")
}

func TestSendRejectedStatus(t *testing.T) {
	// HTTP 200 but application-level failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":0,"errors":["application token is invalid"]}`))
	}))
	defer srv.Close()

	p := notify.NewPushoverWithEndpoint("bad", "usr", srv.URL)
	err := p.Send(context.Background(), "TradeWall", "hello")
	assert.ErrorIs(t, err, domain.ErrDeliveryFailure)
}

func TestSendMissingCredentials(t *testing.T) {
	p := notify.NewPushover("", "")
	err := p.Send(context.Background(), "TradeWall", "hello")
	assert.ErrorIs(t, err, domain.ErrDeliveryFailure)
}
