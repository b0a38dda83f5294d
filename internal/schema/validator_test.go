package schema

import (
	"errors"
	"strings"
	"testing"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestValidate_SubscriptionRequest(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"valid", `{"method":"subscribe","params":{"channel":"ticker","symbol":["BTC/USD","ETH/USD"],"snapshot":true}}`, true},
		{"valid without snapshot", `{"method":"subscribe","params":{"channel":"ticker","symbol":["BTC/USD"]}}`, true},
		{"wrong method", `{"method":"unsubscribe","params":{"channel":"ticker","symbol":["BTC/USD"]}}`, false},
		{"empty symbols", `{"method":"subscribe","params":{"channel":"ticker","symbol":[]}}`, false},
		{"bad symbol", `{"method":"subscribe","params":{"channel":"ticker","symbol":["BTCUSD"]}}`, false},
		{"missing params", `{"method":"subscribe"}`, false},
		{"snapshot not bool", `{"method":"subscribe","params":{"channel":"ticker","symbol":["BTC/USD"],"snapshot":"yes"}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(SubscriptionRequest, []byte(tt.raw))
			if tt.valid && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_SubscriptionResponse(t *testing.T) {
	v := newValidator(t)

	ok := `{"method":"subscribe","result":{"channel":"ticker","snapshot":true,"symbol":"BTC/USD"},"success":true,"time_in":"2024-01-01T00:00:00.000000Z","time_out":"2024-01-01T00:00:00.000100Z"}`
	if err := v.Validate(SubscriptionResponse, []byte(ok)); err != nil {
		t.Errorf("expected valid ack, got %v", err)
	}

	failed := `{"error":"Currency pair not supported FOO/BAR","method":"subscribe","success":false,"symbol":"FOO/BAR"}`
	if err := v.Validate(SubscriptionResponse, []byte(failed)); err != nil {
		t.Errorf("expected valid failure ack, got %v", err)
	}

	if err := v.Validate(SubscriptionResponse, []byte(`{"method":"subscribe"}`)); err == nil {
		t.Error("expected error for missing success")
	}
}

func TestValidate_Heartbeat(t *testing.T) {
	v := newValidator(t)

	if err := v.Validate(Heartbeat, []byte(`{"channel":"heartbeat"}`)); err != nil {
		t.Errorf("expected valid heartbeat, got %v", err)
	}
	if err := v.Validate(Heartbeat, []byte(`{"channel":"ticker"}`)); err == nil {
		t.Error("expected error for wrong channel")
	}
}

func TestValidate_TickerUpdate(t *testing.T) {
	v := newValidator(t)

	ok := `{"channel":"ticker","type":"update","data":[{"symbol":"BTC/USD","bid":65000.1,"bid_qty":0.5,"ask":65000.2,"ask_qty":1.25,"last":65000.15,"volume":1234.5,"vwap":64900.0,"low":64000,"high":66000,"change":500,"change_pct":0.77}]}`
	if err := v.Validate(TickerUpdate, []byte(ok)); err != nil {
		t.Errorf("expected valid ticker, got %v", err)
	}

	partial := `{"channel":"ticker","type":"snapshot","data":[{"symbol":"BTC/USD","last":1}]}`
	if err := v.Validate(TickerUpdate, []byte(partial)); err != nil {
		t.Errorf("partial ticker should be structurally valid, got %v", err)
	}

	err := v.Validate(TickerUpdate, []byte(`{"channel":"ticker","type":"update","data":[{"symbol":"BTC/USD","last":"abc"}]}`))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Contract != TickerUpdate {
		t.Errorf("expected contract TickerUpdate, got %s", ve.Contract)
	}
	if !strings.Contains(ve.Detail, "/data/0/last") {
		t.Errorf("expected detail to locate the field, got %q", ve.Detail)
	}

	if err := v.Validate(TickerUpdate, []byte(`{"channel":"ticker","type":"delta","data":[]}`)); err == nil {
		t.Error("expected error for unknown type")
	}
	if err := v.Validate(TickerUpdate, []byte(`{"channel":"ticker","type":"update","data":[{"bid":1}]}`)); err == nil {
		t.Error("expected error for missing symbol")
	}
}

func TestValidate_UnknownContract(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(Contract("OrderBook"), []byte(`{}`))
	if !errors.Is(err, ErrUnknownContract) {
		t.Errorf("expected ErrUnknownContract, got %v", err)
	}

	err = v.ValidateValue(Contract("OrderBook"), map[string]any{})
	if !errors.Is(err, ErrUnknownContract) {
		t.Errorf("expected ErrUnknownContract, got %v", err)
	}
}

func TestValidate_MalformedJSON(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(Heartbeat, []byte(`{"channel":`))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.HasPrefix(ve.Detail, "invalid JSON") {
		t.Errorf("unexpected detail %q", ve.Detail)
	}
}

func TestValidateValue_Struct(t *testing.T) {
	v := newValidator(t)

	type params struct {
		Channel  string   `json:"channel"`
		Symbol   []string `json:"symbol"`
		Snapshot bool     `json:"snapshot"`
	}
	type request struct {
		Method string `json:"method"`
		Params params `json:"params"`
	}

	good := request{Method: "subscribe", Params: params{Channel: "ticker", Symbol: []string{"SOL/USD"}, Snapshot: true}}
	if err := v.ValidateValue(SubscriptionRequest, good); err != nil {
		t.Errorf("expected valid, got %v", err)
	}

	bad := request{Method: "subscribe", Params: params{Channel: "ticker"}}
	if err := v.ValidateValue(SubscriptionRequest, bad); err == nil {
		t.Error("expected error for nil symbol list")
	}

	if err := v.ValidateValue(Heartbeat, make(chan int)); err == nil {
		t.Error("expected error for unencodable value")
	}
}

func TestValidate_TrailingData(t *testing.T) {
	v := newValidator(t)

	err := v.Validate(Heartbeat, []byte(`{"channel":"heartbeat"} {"channel":"heartbeat"}`))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(ve.Detail, "trailing data") {
		t.Errorf("unexpected detail %q", ve.Detail)
	}

	if err := v.Validate(Heartbeat, []byte("{\"channel\":\"heartbeat\"}\n")); err != nil {
		t.Errorf("trailing newline should be accepted, got %v", err)
	}
}

func TestValidate_OutOfRangeNumberIsStillANumber(t *testing.T) {
	v := newValidator(t)

	msg := `{"channel":"ticker","type":"update","data":[{"symbol":"BTC/USD","last":1e400}]}`
	if err := v.Validate(TickerUpdate, []byte(msg)); err != nil {
		t.Errorf("expected 1e400 to satisfy the number type, got %v", err)
	}
}
