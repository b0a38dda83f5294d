package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"kraken-tools/internal/kraken"
	"kraken-tools/internal/observability"
	"kraken-tools/internal/schema"
	"kraken-tools/internal/storage"
)

// DefaultFlushTimeout bounds the final bulk write.
const DefaultFlushTimeout = 30 * time.Second

// SessionStats summarizes one streaming session.
type SessionStats struct {
	SessionID  string
	Messages   int
	Heartbeats int
	Acks       int
	Tickers    int
	Unknown    int
	Invalid    int // failed to decode or failed contract validation
	Records    int // appended to the record log
	Rejected   int // ticker entries that produced no record
	Flushed    int // records persisted by the final flush
	Subscribed bool
}

// Pipeline consumes one websocket session and persists the ticker records.
type Pipeline struct {
	conn         kraken.WSConn
	validator    *schema.Validator
	store        storage.TickerRecordStore
	symbols      []string
	channel      string
	snapshot     bool
	policy       DecodePolicy
	flushTimeout time.Duration
	now          func() time.Time
	sessionID    string
	logger       *log.Logger
}

// PipelineOptions contains configuration for creating a Pipeline.
type PipelineOptions struct {
	Conn         kraken.WSConn
	Validator    *schema.Validator
	Store        storage.TickerRecordStore
	Symbols      []string
	Channel      string // Default: "ticker"
	Snapshot     *bool  // Default: true
	DecodePolicy DecodePolicy
	FlushTimeout time.Duration // Default: 30s
	Now          func() time.Time
	SessionID    string // Default: random UUID
	Logger       *log.Logger
}

// NewPipeline creates a new live ingestion pipeline.
func NewPipeline(opts PipelineOptions) *Pipeline {
	channel := opts.Channel
	if channel == "" {
		channel = ChannelTicker
	}

	snapshot := true
	if opts.Snapshot != nil {
		snapshot = *opts.Snapshot
	}

	flushTimeout := opts.FlushTimeout
	if flushTimeout == 0 {
		flushTimeout = DefaultFlushTimeout
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Pipeline{
		conn:         opts.Conn,
		validator:    opts.Validator,
		store:        opts.Store,
		symbols:      opts.Symbols,
		channel:      channel,
		snapshot:     snapshot,
		policy:       opts.DecodePolicy,
		flushTimeout: flushTimeout,
		now:          now,
		sessionID:    sessionID,
		logger:       logger,
	}
}

// SessionID returns the identifier stamped on every record.
func (p *Pipeline) SessionID() string {
	return p.sessionID
}

// Run subscribes and processes messages until ctx is cancelled or the
// connection fails. Cancellation is a normal stop and returns a nil error.
// On every exit path the connection is closed and the record log is flushed once.
func (p *Pipeline) Run(ctx context.Context) (stats *SessionStats, err error) {
	stats = &SessionStats{SessionID: p.sessionID}
	recordLog := NewRecordLog()

	defer func() {
		if cerr := p.conn.Close(); cerr != nil && !errors.Is(cerr, kraken.ErrClosed) {
			p.logger.Printf("WARN: close connection: %v", cerr)
		}

		flushCtx, cancel := context.WithTimeout(context.Background(), p.flushTimeout)
		defer cancel()

		n, ferr := recordLog.Flush(flushCtx, p.store)
		stats.Flushed = n
		if ferr != nil {
			p.logger.Printf("ERROR: flush %d records: %v", recordLog.Len(), ferr)
			ferr = fmt.Errorf("flush records: %w", ferr)
			if err == nil {
				err = ferr
			} else {
				err = errors.Join(err, ferr)
			}
			return
		}
		p.logger.Printf("Session %s: flushed %d records", p.sessionID, n)
	}()

	if p.channel != ChannelTicker {
		return stats, fmt.Errorf("%w: %q", ErrUnsupportedChannel, p.channel)
	}
	req := NewSubscribeRequest(p.channel, p.symbols, p.snapshot)
	if err := p.validator.ValidateValue(schema.SubscriptionRequest, req); err != nil {
		return stats, fmt.Errorf("invalid subscription request: %w", err)
	}

	// Close the connection on cancellation to unblock Receive.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			p.conn.Close()
		case <-done:
		}
	}()

	if err := p.conn.Send(req); err != nil {
		if ctx.Err() != nil {
			return stats, nil
		}
		return stats, fmt.Errorf("send subscription: %w", err)
	}
	p.logger.Printf("Subscribed to %s for %d symbols (snapshot=%v)", p.channel, len(p.symbols), p.snapshot)

	for {
		raw, err := p.conn.Receive()
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Printf("Session %s stopping: %v", p.sessionID, ctx.Err())
				return stats, nil
			}
			return stats, fmt.Errorf("receive: %w", err)
		}
		p.handle(raw, stats, recordLog)
	}
}

// handle classifies, validates and dispatches one message.
func (p *Pipeline) handle(raw []byte, stats *SessionStats, recordLog *RecordLog) {
	stats.Messages++

	msg, err := Classify(raw)
	if err != nil {
		stats.Invalid++
		observability.RecordWSMessage("invalid")
		p.logger.Printf("WARN: discard undecodable message: %v", err)
		return
	}
	observability.RecordWSMessage(msg.Kind.String())

	if contract, ok := msg.Kind.Contract(); ok {
		if err := p.validator.Validate(contract, raw); err != nil {
			stats.Invalid++
			observability.RecordValidationFailure(string(contract))
			if msg.Kind == KindTickerBatch {
				p.logger.Printf("WARN: discard invalid ticker message: %v\nmessage: %s", err, raw)
			} else {
				p.logger.Printf("WARN: discard invalid %s message: %v", msg.Kind, err)
			}
			return
		}
	}

	switch msg.Kind {
	case KindSubscriptionAck:
		p.handleAck(msg.Ack, stats)
	case KindHeartbeat:
		stats.Heartbeats++
	case KindTickerBatch:
		stats.Tickers++
		p.handleTicker(msg.Ticker, stats, recordLog)
	default:
		stats.Unknown++
		p.logger.Printf("WARN: discard unrecognized message: %s", truncate(raw, 256))
	}
}

func (p *Pipeline) handleAck(ack *SubscriptionAck, stats *SessionStats) {
	stats.Acks++
	first := stats.Acks == 1

	switch {
	case ack.Success:
		stats.Subscribed = true
		if first {
			p.logger.Println("Subscription acknowledged")
		} else {
			p.logger.Println("Additional subscription acknowledgement")
		}
	default:
		// Not fatal: some servers deliver data regardless.
		p.logger.Printf("WARN: subscription failed: %s", ack.Error)
	}
}

func (p *Pipeline) handleTicker(batch *TickerBatch, stats *SessionStats, recordLog *RecordLog) {
	records, rejected, err := DecodeTickerBatch(batch, p.now(), p.sessionID, p.policy)
	if err != nil {
		stats.Invalid++
		p.logger.Printf("WARN: discard ticker message: %v", err)
		return
	}

	reasons := make(map[string]int)
	for _, r := range rejected {
		reasons[r.Reason]++
		switch r.Reason {
		case RejectMissingFields:
			p.logger.Printf("WARN: reject %s record for %s: missing %s", p.policy, r.Symbol, r.Missing)
		case RejectMalformed:
			p.logger.Printf("WARN: reject ticker entry %d (%s): %v", r.Index, r.Symbol, r.Err)
		default:
			p.logger.Printf("WARN: reject ticker entry %d: %s", r.Index, r.Reason)
		}
	}

	recordLog.Append(records...)
	stats.Records += len(records)
	stats.Rejected += len(rejected)
	observability.RecordLiveRecords(len(records), reasons)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
