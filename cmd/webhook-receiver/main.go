package main

import (
	"flag"
	"io"
	"net/http"
	"os"

	"github.com/DIMO-Network/webhook-router/internal/controllers/webhook"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// webhook-receiver is a local destination for trying out the router.
// Point an account's destination at http://localhost:8081/webhook.
func main() {
	addr := flag.String("addr", ":8081", "listen address")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	http.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		phoneID, _ := webhook.RoutingKey(body)
		event := logger.Info().Str("phoneId", phoneID)
		if gjson.ValidBytes(body) {
			event = event.RawJSON("payload", body)
		} else {
			event = event.Bytes("payload", body)
		}
		event.Msg("Webhook received")
		w.WriteHeader(http.StatusOK)
	})

	logger.Info().Str("addr", *addr).Msg("Webhook receiver listening")
	if err := http.ListenAndServe(*addr, nil); err != nil {
		logger.Fatal().Err(err).Msg("Webhook receiver stopped")
	}
}
