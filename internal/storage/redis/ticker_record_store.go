package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"kraken-tools/internal/domain"
	"kraken-tools/internal/storage"
)

// Every key family has its own prefix so no symbol or session ID can
// collide with another family or with the sequence counter.
const (
	seqKey        = "ticker:seq"
	symbolPrefix  = "ticker:sym:"
	latestPrefix  = "ticker:latest:"
	sessionPrefix = "ticker:session:"

	// seqWidth zero-pads sequence numbers so members with equal scores
	// sort lexically in arrival order.
	seqWidth = 16
)

// TickerRecordStore implements storage.TickerRecordStore using Redis.
//
// Layout:
//   - ticker:sym:<symbol>      sorted set, score = timestamp ms
//   - ticker:session:<id>      sorted set, score = sequence number
//   - ticker:latest:<symbol>   hash of the most recently written record
//
// Sorted set members are "<seq>|<json record>".
type TickerRecordStore struct {
	client *Client
}

// NewTickerRecordStore creates a new TickerRecordStore.
func NewTickerRecordStore(client *Client) *TickerRecordStore {
	return &TickerRecordStore{client: client}
}

// Compile-time interface check.
var _ storage.TickerRecordStore = (*TickerRecordStore)(nil)

func symbolKey(symbol string) string { return symbolPrefix + symbol }
func sessionKey(id string) string { return sessionPrefix + id }
func latestKey(symbol string) string { return latestPrefix + symbol }

// tickerRow is the JSON form of a record inside a sorted set member.
type tickerRow struct {
	SessionID   string  `json:"session_id"`
	Timestamp   string  `json:"ts"`
	Symbol      string  `json:"symbol"`
	MessageType string  `json:"type"`
	Bid         float64 `json:"bid"`
	BidQty      float64 `json:"bid_qty"`
	Ask         float64 `json:"ask"`
	AskQty      float64 `json:"ask_qty"`
	Last        float64 `json:"last"`
	Volume      float64 `json:"volume"`
	VWAP        float64 `json:"vwap"`
	Low         float64 `json:"low"`
	High        float64 `json:"high"`
	Change      float64 `json:"change"`
	ChangePct   float64 `json:"change_pct"`
	Missing     uint16  `json:"missing,omitempty"`
}

// InsertBulk reserves a sequence range, then writes all records in one MULTI/EXEC.
func (s *TickerRecordStore) InsertBulk(ctx context.Context, records []*domain.LiveTickerRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := storage.ValidateTickerRecords(records); err != nil {
		return err
	}

	last, err := s.client.IncrBy(ctx, seqKey, int64(len(records))).Result()
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}
	first := last - int64(len(records)) + 1

	latest := make(map[string]*domain.LiveTickerRecord)
	var symbols []string

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, r := range records {
			seq := first + int64(i)
			member, err := encodeMember(seq, r)
			if err != nil {
				return err
			}

			pipe.ZAdd(ctx, symbolKey(r.Symbol), redis.Z{
				Score:  float64(r.Timestamp.UnixMilli()),
				Member: member,
			})
			pipe.ZAdd(ctx, sessionKey(r.SessionID), redis.Z{
				Score:  float64(seq),
				Member: member,
			})

			if _, seen := latest[r.Symbol]; !seen {
				symbols = append(symbols, r.Symbol)
			}
			latest[r.Symbol] = r
		}

		for _, sym := range symbols {
			pipe.HSet(ctx, latestKey(sym), latestFields(latest[sym]))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write ticker records: %w", err)
	}
	return nil
}

// GetBySession retrieves all records of a session, ordered by timestamp ASC.
func (s *TickerRecordStore) GetBySession(ctx context.Context, sessionID string) ([]*domain.LiveTickerRecord, error) {
	members, err := s.client.ZRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("query by session: %w", err)
	}
	return decodeMembers(members)
}

// GetBySymbolTimeRange retrieves records for a symbol within [start, end] (inclusive),
// at millisecond resolution.
func (s *TickerRecordStore) GetBySymbolTimeRange(ctx context.Context, symbol string, start, end time.Time) ([]*domain.LiveTickerRecord, error) {
	members, err := s.client.ZRangeByScore(ctx, symbolKey(symbol), &redis.ZRangeBy{
		Min: strconv.FormatInt(start.UnixMilli(), 10),
		Max: strconv.FormatInt(end.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("query by symbol time range: %w", err)
	}
	return decodeMembers(members)
}

// Latest returns the most recently written record for a symbol.
// Returns ErrNotFound if the symbol has no records.
func (s *TickerRecordStore) Latest(ctx context.Context, symbol string) (*domain.LiveTickerRecord, error) {
	fields, err := s.client.HGetAll(ctx, latestKey(symbol)).Result()
	if err != nil {
		return nil, fmt.Errorf("get latest %s: %w", symbol, err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrNotFound
	}
	return parseLatestFields(fields)
}

func encodeMember(seq int64, r *domain.LiveTickerRecord) (string, error) {
	data, err := json.Marshal(tickerRow{
		SessionID:   r.SessionID,
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339Nano),
		Symbol:      r.Symbol,
		MessageType: string(r.MessageType),
		Bid:         r.Bid,
		BidQty:      r.BidQty,
		Ask:         r.Ask,
		AskQty:      r.AskQty,
		Last:        r.Last,
		Volume:      r.Volume,
		VWAP:        r.VWAP,
		Low:         r.Low,
		High:        r.High,
		Change:      r.Change,
		ChangePct:   r.ChangePct,
		Missing:     uint16(r.Missing),
	})
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return fmt.Sprintf("%0*d|%s", seqWidth, seq, data), nil
}

func decodeMember(member string) (*domain.LiveTickerRecord, error) {
	_, data, ok := strings.Cut(member, "|")
	if !ok {
		return nil, fmt.Errorf("malformed member %q", member)
	}

	var row tickerRow
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, row.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("decode timestamp: %w", err)
	}

	return &domain.LiveTickerRecord{
		SessionID:   row.SessionID,
		Timestamp:   ts.UTC(),
		Symbol:      row.Symbol,
		MessageType: domain.MessageType(row.MessageType),
		Bid:         row.Bid,
		BidQty:      row.BidQty,
		Ask:         row.Ask,
		AskQty:      row.AskQty,
		Last:        row.Last,
		Volume:      row.Volume,
		VWAP:        row.VWAP,
		Low:         row.Low,
		High:        row.High,
		Change:      row.Change,
		ChangePct:   row.ChangePct,
		Missing:     domain.FieldSet(row.Missing),
	}, nil
}

// decodeMembers decodes members already in arrival order and sorts them by timestamp.
func decodeMembers(members []string) ([]*domain.LiveTickerRecord, error) {
	result := make([]*domain.LiveTickerRecord, 0, len(members))
	for _, m := range members {
		r, err := decodeMember(m)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func latestFields(r *domain.LiveTickerRecord) map[string]any {
	return map[string]any{
		"session_id": r.SessionID,
		"ts":         r.Timestamp.UTC().Format(time.RFC3339Nano),
		"symbol":     r.Symbol,
		"type":       string(r.MessageType),
		"bid":        r.Bid,
		"bid_qty":    r.BidQty,
		"ask":        r.Ask,
		"ask_qty":    r.AskQty,
		"last":       r.Last,
		"volume":     r.Volume,
		"vwap":       r.VWAP,
		"low":        r.Low,
		"high":       r.High,
		"change":     r.Change,
		"change_pct": r.ChangePct,
		"missing":    uint16(r.Missing),
	}
}

func parseLatestFields(fields map[string]string) (*domain.LiveTickerRecord, error) {
	ts, err := time.Parse(time.RFC3339Nano, fields["ts"])
	if err != nil {
		return nil, fmt.Errorf("parse latest ts: %w", err)
	}

	r := &domain.LiveTickerRecord{
		SessionID:   fields["session_id"],
		Timestamp:   ts.UTC(),
		Symbol:      fields["symbol"],
		MessageType: domain.MessageType(fields["type"]),
	}

	targets := map[string]*float64{
		"bid": &r.Bid, "bid_qty": &r.BidQty, "ask": &r.Ask, "ask_qty": &r.AskQty,
		"last": &r.Last, "volume": &r.Volume, "vwap": &r.VWAP, "low": &r.Low,
		"high": &r.High, "change": &r.Change, "change_pct": &r.ChangePct,
	}
	for name, dst := range targets {
		v, err := strconv.ParseFloat(fields[name], 64)
		if err != nil {
			return nil, fmt.Errorf("parse latest %s: %w", name, err)
		}
		*dst = v
	}

	missing, err := strconv.ParseUint(fields["missing"], 10, 16)
	if err != nil {
		return nil, fmt.Errorf("parse latest missing: %w", err)
	}
	r.Missing = domain.FieldSet(missing)

	return r, nil
}
