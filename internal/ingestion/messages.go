package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/schema"
)

// ErrUnsupportedChannel is returned for any subscription channel other than ticker.
// Only ticker payloads have a decoder.
var ErrUnsupportedChannel = errors.New("unsupported channel")

// Websocket v2 method and channel names.
const (
	MethodSubscribe  = "subscribe"
	ChannelTicker    = "ticker"
	ChannelHeartbeat = "heartbeat"
)

// SubscribeRequest is the outbound subscription message.
type SubscribeRequest struct {
	Method string          `json:"method"`
	Params SubscribeParams `json:"params"`
}

// SubscribeParams selects a channel and symbols.
type SubscribeParams struct {
	Channel  string   `json:"channel"`
	Symbol   []string `json:"symbol"`
	Snapshot bool     `json:"snapshot"`
}

// NewSubscribeRequest builds a subscription request.
func NewSubscribeRequest(channel string, symbols []string, snapshot bool) SubscribeRequest {
	return SubscribeRequest{
		Method: MethodSubscribe,
		Params: SubscribeParams{
			Channel:  channel,
			Symbol:   symbols,
			Snapshot: snapshot,
		},
	}
}

// MessageKind tags the variant held by a Message.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindSubscriptionAck
	KindHeartbeat
	KindTickerBatch
)

func (k MessageKind) String() string {
	switch k {
	case KindSubscriptionAck:
		return "ack"
	case KindHeartbeat:
		return "heartbeat"
	case KindTickerBatch:
		return "ticker"
	default:
		return "unknown"
	}
}

// Contract returns the schema contract for the kind. Unknown has none.
func (k MessageKind) Contract() (schema.Contract, bool) {
	switch k {
	case KindSubscriptionAck:
		return schema.SubscriptionResponse, true
	case KindHeartbeat:
		return schema.Heartbeat, true
	case KindTickerBatch:
		return schema.TickerUpdate, true
	default:
		return "", false
	}
}

// SubscriptionAck is the server reply to a subscribe request.
type SubscriptionAck struct {
	Method  string `json:"method"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TickerBatch carries zero or more raw ticker entries of one message.
type TickerBatch struct {
	Type domain.MessageType
	Data json.RawMessage
}

// Message is an inbound websocket message. Exactly one variant field is set
// according to Kind; Unknown carries only Raw.
type Message struct {
	Kind   MessageKind
	Raw    []byte
	Ack    *SubscriptionAck
	Ticker *TickerBatch
}

// envelope holds the discriminator fields shared by every inbound shape.
type envelope struct {
	Method  string          `json:"method"`
	Channel string          `json:"channel"`
	Type    string          `json:"type"`
	Success *bool           `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// Classify decodes raw once and selects the message variant.
// It returns an error only when raw is not a JSON object.
func Classify(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{Kind: KindUnknown, Raw: raw}, fmt.Errorf("decode envelope: %w", err)
	}

	msg := Message{Raw: raw}
	switch {
	case env.Method == MethodSubscribe:
		msg.Kind = KindSubscriptionAck
		ack := &SubscriptionAck{Method: env.Method, Error: env.Error}
		if env.Success != nil {
			ack.Success = *env.Success
		}
		msg.Ack = ack
	case env.Channel == ChannelHeartbeat:
		msg.Kind = KindHeartbeat
	case env.Channel == ChannelTicker && domain.MessageType(env.Type).IsValid():
		msg.Kind = KindTickerBatch
		msg.Ticker = &TickerBatch{Type: domain.MessageType(env.Type), Data: env.Data}
	default:
		msg.Kind = KindUnknown
	}
	return msg, nil
}
