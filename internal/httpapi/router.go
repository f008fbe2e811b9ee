// Package httpapi wires the JSON-RPC and WebSocket endpoints described
// in spec.md §6 onto gorilla/mux routers: one JSON-RPC route per
// dialect, a SlotsSubscribe WebSocket upgrade, and a separate
// admin router for health and metrics.
package httpapi

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/solfees-xyz/solfees-go/internal/rpcapi"
	"github.com/solfees-xyz/solfees-go/internal/subshub"
	"github.com/solfees-xyz/solfees-go/internal/wsserver"
)

// maxRequestBodyBytes bounds how large a single JSON-RPC request body
// may be before it is rejected outright.
const maxRequestBodyBytes = 1 << 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// NewRouter builds the public router: one JSON-RPC endpoint per
// dialect and one WebSocket endpoint, all sharing the same reducer
// and subscription hub.
func NewRouter(log *zap.SugaredLogger, hub *subshub.Hub, solanaMux, tritonMux *rpcapi.Multiplexer) *mux.Router {
	router := mux.NewRouter()

	router.Handle("/api/solana", rpcHandler(log, solanaMux)).Methods(http.MethodPost)
	router.Handle("/api/triton", rpcHandler(log, tritonMux)).Methods(http.MethodPost)
	router.Handle("/api/solana/ws", wsHandler(log, hub)).Methods(http.MethodGet)

	return router
}

func rpcHandler(log *zap.SugaredLogger, mux *rpcapi.Multiplexer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes+1))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		if len(body) > maxRequestBodyBytes {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}

		response, err := mux.Handle(r.Context(), body)
		if err != nil {
			log.Debugw("rpc request failed", "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(response)
	}
}

func wsHandler(log *zap.SugaredLogger, hub *subshub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debugw("websocket upgrade failed", "error", err)
			return
		}

		connLog := log.With("remote", r.RemoteAddr)
		wsserver.NewConnection(connLog, conn, hub).Serve(r.Context())
	}
}
