package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"boostd/internal/logger"
	"boostd/internal/service"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// ws_smoke plays one TAP_SCREEN game against a running server: it connects,
// starts the session, taps, and waits for the result or failure.
func main() {
	boostID := flag.String("boost", "", "boost id with a tap game")
	userID := flag.String("user", "smoke-user", "user id for the token")
	taps := flag.Int("taps", 12, "taps to send")
	addr := flag.String("addr", "", "server host:port (default 127.0.0.1:$APP_PORT)")
	flag.Parse()

	_ = godotenv.Load()
	if *boostID == "" {
		logger.Fatal("-boost is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Fatal("JWT_SECRET not set")
	}
	if *addr == "" {
		port := os.Getenv("APP_PORT")
		if port == "" {
			port = "8080"
		}
		// use 127.0.0.1 to prefer IPv4
		*addr = "127.0.0.1:" + port
	}

	service.InitJWT(secret)
	token, err := service.GenerateJWT(*userID, time.Hour)
	if err != nil {
		logger.Fatal("gen token", "error", err)
	}

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: url.Values{"token": {token}, "boost_id": {*boostID}}.Encode()}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatal("dial", "error", err)
	}
	defer conn.Close()

	send := func(msg string) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			logger.Fatal("write", "error", err)
		}
	}

	ready := false
	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Fatal("read", "error", err)
		}
		var msg struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		_ = json.Unmarshal(raw, &msg)

		switch msg.Type {
		case "ready":
			if ready {
				continue
			}
			ready = true
			send(`{"type":"start"}`)
			for i := 0; i < *taps; i++ {
				send(`{"type":"tap"}`)
			}
		case "tick":
			logger.Debug("tick", "payload", string(msg.Payload))
		case "result", "failed":
			fmt.Printf("%s: %s\n", msg.Type, msg.Payload)
			return
		case "error":
			logger.Fatal("server error", "payload", string(msg.Payload))
		}
	}
	logger.Fatal("no result before deadline")
}
