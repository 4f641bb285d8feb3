package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kalletarpila/swingmaster/internal/core"
	"github.com/kalletarpila/swingmaster/internal/policy"
	"github.com/kalletarpila/swingmaster/internal/signal"
)

func encodeReasons(reasons []core.ReasonCode) (string, error) {
	if reasons == nil {
		reasons = []core.ReasonCode{}
	}
	b, err := json.Marshal(reasons)
	return string(b), err
}

func decodeReasons(raw string) ([]core.ReasonCode, error) {
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("decoding reasons: %w", err)
	}
	out := make([]core.ReasonCode, 0, len(names))
	for _, n := range names {
		r, err := core.ParseReasonCode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// encodeKeys keeps nil (not recorded) apart from empty
func encodeKeys(keys []signal.Key) (sql.NullString, error) {
	if keys == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(keys)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeKeys(raw sql.NullString) ([]signal.Key, error) {
	if !raw.Valid {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw.String), &names); err != nil {
		return nil, fmt.Errorf("decoding signal keys: %w", err)
	}
	out := make([]signal.Key, 0, len(names))
	for _, n := range names {
		k, err := signal.ParseKey(n)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

func encodeStatus(st *policy.Status) (sql.NullString, error) {
	b, err := policy.EncodeStatus(st)
	if err != nil || b == nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func decodeStatus(raw sql.NullString) (*policy.Status, error) {
	if !raw.Valid {
		return nil, nil
	}
	return policy.DecodeStatus([]byte(raw.String))
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
