package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cyber_cricket/internal/config"
	"cyber_cricket/internal/gameclient"
	"cyber_cricket/internal/logger"
	"cyber_cricket/internal/orchestrator"
	"cyber_cricket/internal/service"

	"github.com/gorilla/websocket"
)

// Drives a game on a remote game service, or with -watch tails the event feed
// of a server running its own simulation.
func main() {
	watch := flag.Bool("watch", false, "tail the server's /ws event feed instead of driving a game")
	url := flag.String("url", "", "game service base URL (default GAME_SERVICE_URL)")
	timeout := flag.Duration("timeout", 2*time.Minute, "per-request timeout")
	token := flag.String("token", "", "operator token for the game endpoints (default: minted from JWT_SECRET)")
	flag.Parse()

	cfg := config.LoadClient()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	base := cfg.GameServiceURL
	if *url != "" {
		base = *url
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *watch {
		if err := tail(ctx, base); err != nil {
			logger.Fatal("watch failed", "error", err)
		}
		return
	}

	if *token == "" && cfg.JWTSecret != "" {
		service.InitJWT(cfg.JWTSecret)
		minted, err := service.GenerateOperatorToken("orchestrator", 24*time.Hour)
		if err != nil {
			logger.Fatal("failed to generate token", "error", err)
		}
		*token = minted
	}
	if *token == "" {
		logger.Warn("no operator token, the game service will refuse every step")
	}

	svc := gameclient.NewClient(base, *timeout).WithToken(*token)
	seq := orchestrator.NewSequencer(svc, orchestrator.Options{
		SpeakDelay: cfg.SpeakDelay,
		VoteDelay:  cfg.VoteDelay,
		Cooldown:   cfg.RecoveryCooldown,
		Observer:   orchestrator.ObserverFunc(printEvent),
	})
	go orchestrator.NewSynchronizer(svc, seq, cfg.SyncInterval).Run(ctx)

	if err := seq.Start(ctx); err != nil {
		logger.Fatal("start failed", "error", err)
	}

	select {
	case <-seq.Done():
	case <-ctx.Done():
		seq.Stop()
	}

	st := seq.Status()
	logger.Info("orchestrator finished", "phase", st.Phase.String())
}

func printEvent(e orchestrator.Event) {
	switch e.Type {
	case orchestrator.EventOpening:
		fmt.Printf("[opening] %s: %s\n", e.Participant, e.Message)
	case orchestrator.EventProgress:
		r := e.Result
		if r == nil {
			return
		}
		switch {
		case r.Statement != "":
			fmt.Printf("[r%d speak] %s: %s\n", r.Round, r.ParticipantName, r.Statement)
		case r.Abstained:
			fmt.Printf("[r%d vote] %s abstains\n", r.Round, r.ParticipantName)
		default:
			fmt.Printf("[r%d vote] %s -> %s\n", r.Round, r.ParticipantName, r.TargetName)
		}
		if r.EliminatedID != "" {
			fmt.Printf("[r%d] eliminated: %s\n", r.Round, r.EliminatedID)
		}
	case orchestrator.EventTie:
		fmt.Printf("[r%d] %s\n", e.Round, e.Message)
	case orchestrator.EventGameOver:
		if e.WinnerID == "" {
			fmt.Println("[game over] no winner")
		} else {
			fmt.Printf("[game over] winner: %s\n", e.WinnerID)
		}
	case orchestrator.EventNotice:
		logger.Info(e.Message, "level", e.Level, "phase", e.Phase, "round", e.Round)
	}
}

// tail prints every message of the event feed until ctx is done.
func tail(ctx context.Context, base string) error {
	wsURL := strings.Replace(strings.TrimRight(base, "/"), "http", "ws", 1) + "/ws"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()

	logger.Info("watching", "url", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var e orchestrator.Event
		if err := json.Unmarshal(msg, &e); err != nil || e.Type == "" {
			fmt.Println(string(msg))
			continue
		}
		switch e.Type {
		case "ready", "status":
			fmt.Println(string(msg))
		default:
			printEvent(e)
		}
	}
}
