package orchestrator

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces run identifiers. Ids double as directory names.
type IDGenerator interface {
	RunID() string
}

// TimestampIDGenerator prefixes random entropy with the submission time so
// ids sort chronologically and never collide within the same millisecond.
type TimestampIDGenerator struct {
	now func() time.Time
}

func (g TimestampIDGenerator) RunID() string {
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	id := uuid.New()
	return fmt.Sprintf("%d-%s", now().UnixMilli(), hex.EncodeToString(id[:6]))
}
