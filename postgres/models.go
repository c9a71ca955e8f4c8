package postgres

import (
	"time"

	"github.com/uptrace/bun"
)

// An entry is one key of the store. A NULL value marks a key that is locked
// for an update but has never been written.
type entry struct {
	bun.BaseModel `bun:"table:kv_entries"`

	Key       string    `bun:",pk"`
	Value     []byte    `bun:"value,type:bytea,nullzero"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
