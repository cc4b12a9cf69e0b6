package fdm

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/websocket"
)

func TestWebsocketTransport(t *testing.T) {
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		for {
			var env actionEnvelope
			if err := websocket.JSON.Receive(ws, &env); err != nil {
				return
			}
			// сначала событие другой сессии, затем ответ на запрос
			websocket.JSON.Send(ws, event{SessionID: "foreign", Response: Response{Status: DeviceStatus{Status: "disconnected"}}})
			websocket.JSON.Send(ws, event{SessionID: env.SessionID, DeviceIdentifier: env.DeviceIdentifier, Response: *signedResponse()})
		}
	}))
	defer srv.Close()

	transport := NewWebsocketTransport(WebsocketConfig{
		URL:              "ws" + strings.TrimPrefix(srv.URL, "http"),
		DeviceIdentifier: "fdm_1",
	})
	client := New(Config{Timeout: 5 * time.Second}, transport)
	defer client.Close()

	for i := 0; i < 2; i++ {
		signed, err := client.RegisterReceipt(context.Background(), validRecord())
		if err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i+1, err)
		}
		if signed.TicketCounter != "7" {
			t.Errorf("unexpected counter %q", signed.TicketCounter)
		}
	}
}

func TestWebsocketTransportCancel(t *testing.T) {
	srv := httptest.NewServer(websocket.Handler(func(ws *websocket.Conn) {
		var env actionEnvelope
		websocket.JSON.Receive(ws, &env)
		// не отвечаем, пока клиент не закроет соединение
		var ignored actionEnvelope
		websocket.JSON.Receive(ws, &ignored)
	}))
	defer srv.Close()

	transport := NewWebsocketTransport(WebsocketConfig{URL: "ws" + strings.TrimPrefix(srv.URL, "http")})
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := transport.Send(ctx, Request{Action: ActionRegisterReceipt})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestWebsocketTransportDialFailure(t *testing.T) {
	transport := NewWebsocketTransport(WebsocketConfig{URL: "ws://127.0.0.1:1/"})
	_, err := transport.Send(context.Background(), Request{Action: ActionRegisterReceipt})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
