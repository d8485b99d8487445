package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
)

// WSConfirmerConfig configures WebSocket confirmation behavior.
type WSConfirmerConfig struct {
	// HandshakeTimeout bounds the WebSocket dial.
	HandshakeTimeout time.Duration
	// WriteTimeout bounds the subscription request write.
	WriteTimeout time.Duration
}

// DefaultWSConfirmerConfig returns default WebSocket confirmer configuration.
func DefaultWSConfirmerConfig() WSConfirmerConfig {
	return WSConfirmerConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
	}
}

// WSConfirmer waits for transaction confirmation through a signatureSubscribe
// subscription instead of polling. A fresh connection is dialed per
// confirmation; the subscription is single-shot and the node removes it after
// the notification fires.
type WSConfirmer struct {
	endpoint string
	config   WSConfirmerConfig
}

// NewWSConfirmer creates a confirmer for the given WebSocket endpoint.
func NewWSConfirmer(endpoint string, config *WSConfirmerConfig) *WSConfirmer {
	cfg := DefaultWSConfirmerConfig()
	if config != nil {
		cfg = *config
	}
	return &WSConfirmer{endpoint: endpoint, config: cfg}
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsMessage struct {
	ID     uint64          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wsError        `json:"error,omitempty"`
	Params *wsNotifyParams `json:"params,omitempty"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *wsError) Error() string {
	return fmt.Sprintf("ws error %d: %s", e.Code, e.Message)
}

type wsNotifyParams struct {
	Subscription int64 `json:"subscription"`
	Result       struct {
		Value struct {
			Err interface{} `json:"err"`
		} `json:"value"`
	} `json:"result"`
}

// WaitForConfirmation blocks until the node notifies confirmation of sig at
// confirmed commitment, the transaction is reported failed, or ctx expires.
// A non-nil on-chain error is returned as-is for the caller to classify.
func (c *WSConfirmer) WaitForConfirmation(ctx context.Context, sig solana.Signature) error {
	dialer := websocket.Dialer{HandshakeTimeout: c.config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "signatureSubscribe",
		Params: []interface{}{
			sig.String(),
			map[string]string{"commitment": "confirmed"},
		},
	}
	conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	// Unblock ReadJSON when the caller's context expires.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read notification: %w", err)
		}
		if msg.Error != nil {
			return msg.Error
		}
		if msg.Method == "signatureNotification" && msg.Params != nil {
			if txErr := msg.Params.Result.Value.Err; txErr != nil {
				return fmt.Errorf("transaction failed on-chain: %v", txErr)
			}
			return nil
		}
		// Anything else is the subscription confirmation; keep reading.
	}
}
