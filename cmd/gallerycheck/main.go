package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/mpoapostolis/galerra-game-server/pkg/wire"
)

// gallerycheck probes a running gallery server: the ops endpoints
// first, then an optional websocket join round-trip.
func main() {
	opsURL := strings.TrimRight(os.Getenv("OPS_BASE_URL"), "/")
	if opsURL == "" {
		opsURL = "http://127.0.0.1:8081"
	}
	wsURL := strings.TrimSpace(os.Getenv("GALLERY_WS_URL"))

	client := &fasthttp.Client{ReadTimeout: 5 * time.Second, WriteTimeout: 5 * time.Second}

	status, body, err := client.Get(nil, opsURL+"/healthz")
	if err != nil {
		log.Fatalf("/healthz error: %v", err)
	}
	log.Printf("/healthz ok: status=%d body=%s", status, body)

	status, body, err = client.Get(nil, opsURL+"/rooms")
	if err != nil {
		log.Printf("/rooms error: %v", err)
	} else {
		var stats []struct {
			ID       string `json:"id"`
			Sessions int    `json:"sessions"`
		}
		if err := json.Unmarshal(body, &stats); err != nil {
			log.Printf("/rooms bad payload (status=%d): %v", status, err)
		} else {
			log.Printf("/rooms ok: %d room(s)", len(stats))
			for _, s := range stats {
				log.Printf("  room=%s sessions=%d", s.ID, s.Sessions)
			}
		}
	}

	if wsURL == "" {
		log.Println("GALLERY_WS_URL not set; skipping WS check")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	probe := fmt.Sprintf("%s?galleryId=healthcheck-%s", wsURL, uuid.NewString())
	conn, _, err := websocket.Dial(ctx, probe, nil)
	if err != nil {
		log.Fatalf("ws dial error: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "healthcheck done")

	var env wire.Envelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		log.Fatalf("ws read error: %v", err)
	}
	if env.Type != wire.EventRoomState {
		log.Fatalf("ws first event = %s, want %s", env.Type, wire.EventRoomState)
	}
	log.Println("ws ok: snapshot received")
}
