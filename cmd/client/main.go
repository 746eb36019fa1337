// Command client is a manual smoke-test client for the relay: it connects,
// authenticates, subscribes with the given credentials and prints every event
// the relay sends back until interrupted.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"tick-relay/src/models"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

// -----------------------------------------------------------------------------

func main() {
	// Load .env before flag defaults read the environment.
	godotenv.Load()

	url := flag.String("url", "ws://127.0.0.1:8080/ws", "relay websocket URL")
	secret := flag.String("secret", os.Getenv("RELAY_SECRET"), "relay shared secret")
	apiKey := flag.String("api-key", os.Getenv("KITE_API_KEY"), "upstream api key")
	token := flag.String("token", os.Getenv("KITE_ACCESS_TOKEN"), "upstream access token")
	mode := flag.String("mode", models.ModeFull, "subscription mode (ltp|quote|full)")
	instruments := flag.String("instruments", "", "comma-separated instrument ids")
	flag.Parse()

	ids, err := parseInstruments(*instruments)
	if err != nil {
		log.Fatalf("bad -instruments: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", *url, err)
	}
	defer conn.Close()

	cmd := models.MClientCommand{
		Type:        models.CommandSubscribe,
		Secret:      *secret,
		APIKey:      *apiKey,
		Token:       *token,
		Instruments: ids,
		Mode:        *mode,
	}
	if err := conn.WriteJSON(cmd); err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	log.Printf("subscribed to %d instruments (mode=%s)", len(ids), *mode)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Printf("connection closed: %v", err)
			return
		}
		var pretty map[string]interface{}
		if json.Unmarshal(message, &pretty) == nil {
			log.Printf("<- %s: %s", pretty["type"], message)
		} else {
			log.Printf("<- %s", message)
		}
	}
}

// -----------------------------------------------------------------------------

func parseInstruments(raw string) ([]uint32, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []uint32
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, err
		}
		ids = append(ids, uint32(id))
	}
	return ids, nil
}
