package orchestrator

import (
	"regexp"
	"testing"
	"time"
)

func TestTimestampIDGeneratorFormat(t *testing.T) {
	gen := TimestampIDGenerator{now: func() time.Time { return time.UnixMilli(1700000000123) }}
	id := gen.RunID()
	if !regexp.MustCompile(`^1700000000123-[0-9a-f]{12}$`).MatchString(id) {
		t.Fatalf("unexpected run id format: %s", id)
	}
}

func TestTimestampIDGeneratorUniqueWithinSameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	gen := TimestampIDGenerator{now: func() time.Time { return fixed }}

	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := gen.RunID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate run id %s", id)
		}
		seen[id] = struct{}{}
	}
}
