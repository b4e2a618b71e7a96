// souschef is a recipe instruction agent. It serves the dialogue engine over
// HTTP (native and Dialogflow-style webhooks) and optionally over Discord.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"souschef/internal/dialogue"
	"souschef/internal/effectors"
	"souschef/internal/intent"
	"souschef/internal/knowledge"
	"souschef/internal/logging"
	"souschef/internal/moves"
	"souschef/internal/senses"
	"souschef/internal/session"
	"souschef/internal/webhook"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// Load .env if present (ignore error, env vars may be set directly)
	_ = godotenv.Load()

	recipesPath := getenv("RECIPES_PATH", "data/recipes.json")
	responsesPath := getenv("RESPONSES_PATH", "data/responses.json")
	intentsPath := getenv("INTENTS_PATH", "data/intents.yaml")
	addr := getenv("HTTP_ADDR", ":8080")

	book, err := knowledge.LoadBook(recipesPath)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}
	bank, err := knowledge.LoadPhraseBank(responsesPath)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}

	mgr := dialogue.NewManager(book, bank, moves.Standard(), nil)
	sessions := session.NewRegistry()

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: webhook.NewServer(mgr, sessions).Handler(),
	}
	go func() {
		logging.Info("main", "HTTP listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] HTTP server: %v", err)
		}
	}()

	var sense *senses.DiscordSense
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		matcher, err := intent.Load(intentsPath)
		if err != nil {
			log.Fatalf("[main] %v", err)
		}

		var effector *effectors.DiscordEffector
		sense, err = senses.NewDiscordSense(senses.DiscordConfig{
			Token:     token,
			ChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		}, matcher, func(channelID string, req dialogue.Request) {
			conv, _ := sessions.Get("discord:" + channelID)
			resp := conv.Turn(mgr, req)
			if err := effector.Send(channelID, resp); err != nil {
				logging.Warn("main", "discord send: %v", err)
			}
		})
		if err != nil {
			log.Fatalf("[main] %v", err)
		}
		effector = effectors.NewDiscordEffector(sense.Session())

		if err := sense.Start(); err != nil {
			log.Fatalf("[main] %v", err)
		}
	}

	logging.Info("main", "souschef is up")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logging.Info("main", "Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logging.Warn("main", "HTTP shutdown: %v", err)
	}
	if sense != nil {
		if err := sense.Stop(); err != nil {
			logging.Warn("main", "Discord shutdown: %v", err)
		}
	}
}
