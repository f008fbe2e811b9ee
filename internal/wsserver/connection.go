package wsserver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/solfees-xyz/solfees-go/internal/ingest"
	"github.com/solfees-xyz/solfees-go/internal/metrics"
	"github.com/solfees-xyz/solfees-go/internal/rpcapi"
	"github.com/solfees-xyz/solfees-go/internal/subshub"
)

const writeTimeout = 10 * time.Second

// inboundMessage is what the connection's reader goroutine hands to
// the writer loop: either a decoded text frame, a close, or an error
// that should end the connection.
type inboundMessage struct {
	text []byte
	err  error
}

// updateMessage is what the connection's update-receiving goroutine
// hands to the writer loop.
type updateMessage struct {
	value any
	err   error
}

// Connection drives one SlotsSubscribe WebSocket client end to end,
// mirroring the original's single-writer on_websocket loop: reads are
// decoupled onto a goroutine, and only this loop ever calls the
// underlying conn's write methods (spec.md §4.6).
type Connection struct {
	log  *zap.SugaredLogger
	conn *websocket.Conn
	hub  *subshub.Hub
}

// NewConnection wraps an already-upgraded WebSocket connection.
func NewConnection(log *zap.SugaredLogger, conn *websocket.Conn, hub *subshub.Hub) *Connection {
	return &Connection{log: log, conn: conn, hub: hub}
}

// Serve runs the connection until the client disconnects, sends an
// unsupported frame, or its subscription lags or the hub is shut down.
// It always closes the underlying connection before returning.
func (c *Connection) Serve(ctx context.Context) {
	defer c.conn.Close()
	defer c.log.Debug("websocket connection closed")

	metrics.ActiveSubscriptions.Inc()
	defer metrics.ActiveSubscriptions.Dec()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	inbound := make(chan inboundMessage, 1)
	go c.readLoop(inbound)

	sub := c.hub.Subscribe()
	defer sub.Close()

	updates := make(chan updateMessage, 1)
	go recvUpdates(connCtx, sub, updates)

	var filter *Filter
	var subscriptionID rpcapi.ID

	for {
		select {
		case <-ctx.Done():
			c.writeClose("server shutting down")
			return

		case msg := <-inbound:
			if msg.err != nil {
				return
			}
			newFilter, id, ok := c.handleInbound(msg.text)
			if !ok {
				c.writeClose("received invalid message")
				return
			}
			if newFilter != nil {
				filter = newFilter
				subscriptionID = id
			}

		case update := <-updates:
			if update.err != nil {
				if errors.Is(update.err, subshub.ErrLagged) {
					metrics.BroadcastLagTotal.Inc()
					c.writeClose("subscription lagged")
				}
				return
			}
			if filter == nil {
				continue
			}
			c.handleUpdate(subscriptionID, filter, update.value)
		}
	}
}

// recvUpdates repeatedly calls sub.Recv and forwards each result,
// stopping once ctx is cancelled or Recv returns a terminal error.
func recvUpdates(ctx context.Context, sub *subshub.Subscription, out chan<- updateMessage) {
	for {
		value, err := sub.Recv(ctx)
		if err != nil {
			out <- updateMessage{err: err}
			return
		}
		select {
		case out <- updateMessage{value: value}:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Connection) readLoop(out chan<- inboundMessage) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			out <- inboundMessage{err: err}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			out <- inboundMessage{text: data}
		case websocket.BinaryMessage:
			out <- inboundMessage{text: data}
		case websocket.PingMessage, websocket.PongMessage:
			// gorilla/websocket answers pings automatically via its
			// default ping handler; nothing to forward here.
		default:
			out <- inboundMessage{err: errors.New("unsupported message type")}
			return
		}
	}
}

// handleInbound parses one SlotsSubscribe call and writes its
// success/failure response. It returns the new filter (nil if parsing
// failed or the call wasn't a subscribe) and whether the connection
// should continue.
func (c *Connection) handleInbound(data []byte) (*Filter, rpcapi.ID, bool) {
	var call rpcapi.Call
	if err := json.Unmarshal(data, &call); err != nil {
		return nil, rpcapi.ID{}, false
	}

	if call.Method != "SlotsSubscribe" {
		return nil, rpcapi.ID{}, false
	}

	id := rpcapi.NullID
	if call.ID != nil {
		id = *call.ID
	}

	filter, rerr := ParseFilter(call.Params)
	if rerr != nil {
		c.writeJSON(map[string]any{"jsonrpc": "2.0", "id": json.RawMessage(mustMarshal(id)), "error": rerr})
		return nil, id, true
	}

	c.writeJSON(map[string]any{"jsonrpc": "2.0", "id": json.RawMessage(mustMarshal(id)), "result": "subscribed"})
	return &filter, id, true
}

func (c *Connection) handleUpdate(id rpcapi.ID, filter *Filter, value any) {
	switch update := value.(type) {
	case *ingest.UpdateNotice:
		switch update.Kind {
		case ingest.NoticeStatus:
			if update.StatusCommitment == 0 {
				// Processed-level status advances are noisy and
				// uninteresting to subscribers (spec.md §4.6).
				return
			}
			c.writeJSON(wrapResult(id, StatusOutput{Type: "status", Slot: update.StatusSlot, Commitment: update.StatusCommitment}))
		case ingest.NoticeSlot:
			c.writeJSON(wrapResult(id, GetFiltered(update.SlotInfo, *filter)))
		}
	}
}

func wrapResult(id rpcapi.ID, result any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "id": json.RawMessage(mustMarshal(id)), "result": result}
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return data
}

func (c *Connection) writeJSON(v any) {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.conn.WriteJSON(v)
}

func (c *Connection) writeClose(reason string) {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, reason))
}
