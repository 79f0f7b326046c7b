package model

import (
	"encoding/json"
	"time"
)

// StrategyConfig is the stored strategy entity: a named strategy type
// plus its free-form parameter map.
type StrategyConfig struct {
	ID        int64           `json:"id" db:"id"`
	UserID    int64           `json:"user_id" db:"user_id"`
	Name      string          `json:"name" db:"name"`
	Type      string          `json:"type" db:"type"`
	Config    json.RawMessage `json:"config" db:"config"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
