package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestStreamURL(t *testing.T) {
	url := StreamURL(DefaultStreamURL, []string{"BTCUSDT", "ETHUSDT"})
	want := DefaultStreamURL + "?streams=btcusdt@aggTrade/ethusdt@aggTrade"
	if url != want {
		t.Errorf("url = %s, want %s", url, want)
	}
}

func TestStream_ReceivesTrades(t *testing.T) {
	payload := `{"stream":"btcusdt@aggTrade","data":{"e":"aggTrade","E":1692576000500,"s":"BTCUSDT","a":100,"p":"26000.5","q":"0.5","f":200,"l":201,"T":1692576000123,"m":true,"M":true}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			return
		}
		// Keep connection open until the client leaves.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	stream, err := NewStream(context.Background(), wsURL, []string{"BTCUSDT"}, nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	defer stream.Close()

	select {
	case st := <-stream.Trades():
		if st.Symbol != "BTCUSDT" {
			t.Errorf("symbol = %s", st.Symbol)
		}
		if st.Trade.Price != 26000.5 || st.Trade.TransactTime != 1692576000123 {
			t.Errorf("trade = %+v", st.Trade)
		}
		if !st.Trade.IsBuyerMaker || st.Trade.NumTrades() != 2 {
			t.Errorf("trade flags = %+v", st.Trade)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for trade")
	}
}

func TestStream_IgnoresNonTradeMessages(t *testing.T) {
	messages := []string{
		`{"stream":"btcusdt@aggTrade","data":{"e":"ping"}}`,
		`not json`,
		`{"stream":"btcusdt@aggTrade","data":{"e":"aggTrade","s":"BTCUSDT","p":"100.0","q":"1.0","f":1,"l":1,"T":5000,"m":false}}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	stream, err := NewStream(context.Background(), wsURL, []string{"BTCUSDT"}, nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	defer stream.Close()

	select {
	case st := <-stream.Trades():
		// Only the valid aggTrade message comes through.
		if st.Trade.TransactTime != 5000 {
			t.Errorf("trade = %+v", st.Trade)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for trade")
	}
}

func TestStream_CloseIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	stream, err := NewStream(context.Background(), wsURL, []string{"BTCUSDT"}, nil)
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	// Channel must be closed after Close.
	if _, ok := <-stream.Trades(); ok {
		t.Error("trade channel should be closed")
	}
}

func TestNewStream_NoSymbols(t *testing.T) {
	if _, err := NewStream(context.Background(), DefaultStreamURL, nil, nil); err == nil {
		t.Fatal("expected error for empty symbol set")
	}
}
