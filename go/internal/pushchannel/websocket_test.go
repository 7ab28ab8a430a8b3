package pushchannel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// bidServer answers every place_bid with a new_bid for the same amount.
func bidServer(t *testing.T, cookies chan<- string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("access_token_cookie"); err == nil {
			cookies <- c.Value
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte("garbage"))
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			env, err := Decode(frame)
			if err != nil || env.Event != "place_bid" {
				continue
			}
			var in struct {
				AuctionID string  `json:"auction_id"`
				BidAmount float64 `json:"bid_amount"`
			}
			json.Unmarshal(env.Data, &in)
			out, _ := Encode("new_bid", map[string]any{
				"auction_id":  in.AuctionID,
				"bid_amount":  in.BidAmount,
				"bidder_id":   "u1",
				"bidder_name": "ann",
				"timestamp":   "2024-05-01T12:00:00",
			})
			conn.WriteMessage(websocket.TextMessage, out)
		}
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketRoundTrip(t *testing.T) {
	cookies := make(chan string, 1)
	server := bidServer(t, cookies)
	defer server.Close()

	header := http.Header{}
	header.Set("Cookie", "access_token_cookie=abc")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := DialWebSocket(ctx, wsURL(server), header, DefaultConnectionConfig())
	if err != nil {
		t.Fatalf("DialWebSocket: %v", err)
	}
	defer ch.Close()

	if got := <-cookies; got != "abc" {
		t.Fatalf("cookie = %q", got)
	}

	received := make(chan json.RawMessage, 1)
	ch.On("new_bid", func(data json.RawMessage) { received <- data })

	if err := ch.Emit("place_bid", map[string]any{"auction_id": "a1", "bid_amount": 42.5}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	select {
	case data := <-received:
		var bid struct {
			AuctionID string  `json:"auction_id"`
			BidAmount float64 `json:"bid_amount"`
		}
		if err := json.Unmarshal(data, &bid); err != nil {
			t.Fatal(err)
		}
		if bid.AuctionID != "a1" || bid.BidAmount != 42.5 {
			t.Fatalf("bid = %+v", bid)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no new_bid received")
	}
}

func TestWebSocketEmitAfterClose(t *testing.T) {
	server := bidServer(t, make(chan string, 1))
	defer server.Close()

	ch, err := DialWebSocket(context.Background(), wsURL(server), nil, DefaultConnectionConfig())
	if err != nil {
		t.Fatalf("DialWebSocket: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-ch.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("Done not closed")
	}
	if err := ch.Emit("place_bid", map[string]any{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestDialWebSocketFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	if _, err := DialWebSocket(context.Background(), wsURL(server), nil, DefaultConnectionConfig()); err == nil {
		t.Fatal("expected dial error")
	}
}
