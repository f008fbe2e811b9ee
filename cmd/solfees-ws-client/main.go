// Command solfees-ws-client is a thin SlotsSubscribe diagnostic
// client: it connects to a solfees-server WebSocket endpoint, sends
// one subscription request built from its flags, and logs every
// update it receives. With --reconnect it reconnects with backoff
// until interrupted; otherwise it returns when the session ends.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/solfees-xyz/solfees-go/internal/logging"
)

const (
	reconnectDelayInitial = time.Second
	reconnectDelayMax     = 60 * time.Second
)

type subscriptionParams struct {
	ReadWrite []string `json:"readWrite"`
	ReadOnly  []string `json:"readOnly"`
	Levels    []uint16 `json:"levels"`
	SkipZeros bool     `json:"skipZeros"`
}

type subscribeParams struct {
	Config subscriptionParams `json:"config"`
}

type subscribeRequest struct {
	Version string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  subscribeParams `json:"params"`
}

func main() {
	app := &cli.App{
		Name:  "solfees-ws-client",
		Usage: "subscribe to a solfees-server SlotsSubscribe stream and print every update",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "WebSocket endpoint to connect to",
				Value: "ws://127.0.0.1:9000/api/solana/ws",
			},
			&cli.StringSliceFlag{
				Name:  "read-write",
				Usage: "select transactions where mentioned accounts are readWrite",
			},
			&cli.StringSliceFlag{
				Name:  "read-only",
				Usage: "select transactions where mentioned accounts are readOnly",
			},
			&cli.StringFlag{
				Name:  "levels",
				Usage: "comma-separated percentile levels in bps, up to 5",
				Value: "2000,5000,9000",
			},
			&cli.BoolFlag{
				Name:  "skip-zeros",
				Usage: "set skipZeros in the subscription; solfees-server accepts it but does not apply it",
			},
			&cli.BoolFlag{
				Name:  "reconnect",
				Usage: "automatically reconnect with backoff if the connection drops",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log, err := logging.New(false)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	levels, err := parseLevels(c.String("levels"))
	if err != nil {
		return fmt.Errorf("parse levels: %w", err)
	}

	request := subscribeRequest{
		Version: "2.0",
		ID:      0,
		Method:  "SlotsSubscribe",
		Params: subscribeParams{Config: subscriptionParams{
			ReadWrite: c.StringSlice("read-write"),
			ReadOnly:  c.StringSlice("read-only"),
			Levels:    levels,
			SkipZeros: c.Bool("skip-zeros"),
		}},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return connectLoop(ctx, log, c.String("endpoint"), request, c.Bool("reconnect"))
}

// connectLoop dials endpoint and streams updates until ctx is
// cancelled, reconnecting with exponential backoff and jitter when
// reconnect is set.
func connectLoop(ctx context.Context, log *zap.SugaredLogger, endpoint string, request subscribeRequest, reconnect bool) error {
	delay := reconnectDelayInitial

	for {
		err := runSession(ctx, log, endpoint, request)
		if ctx.Err() != nil {
			return nil
		}
		if !reconnect {
			return err
		}
		log.Infow("session ended, reconnecting", "error", err, "delay", delay)

		jitter := time.Duration(rand.Float64() * float64(500*time.Millisecond))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay + jitter):
		}

		delay *= 2
		if delay > reconnectDelayMax {
			delay = reconnectDelayMax
		}
	}
}

// runSession opens one connection, sends the subscription request, and
// logs updates until the connection closes or ctx is cancelled.
func runSession(ctx context.Context, log *zap.SugaredLogger, endpoint string, request subscribeRequest) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", endpoint, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(request); err != nil {
		return fmt.Errorf("send subscription: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			log.Infow("new message", "message", string(message))
		}
	}()

	select {
	case <-ctx.Done():
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		return nil
	case err := <-done:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func parseLevels(raw string) ([]uint16, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	levels := make([]uint16, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseUint(strings.TrimSpace(part), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid level %q: %w", part, err)
		}
		levels = append(levels, uint16(value))
	}
	return levels, nil
}
