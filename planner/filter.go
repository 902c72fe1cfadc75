package planner

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxTestIDLen = 64

var (
	// ErrEmptyTestIDs is the only validation error callers see for a missing or empty selection.
	ErrEmptyTestIDs = errors.New("testIds must be a non-empty array")
	// ErrInvalidTestID reports an identifier outside the allowed character set.
	ErrInvalidTestID = errors.New("testIds contains an invalid identifier")

	testIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
)

// ValidateTestID checks that id can be safely interpolated into a filter expression.
func ValidateTestID(id string) error {
	if len(id) > maxTestIDLen || !testIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidTestID, id)
	}
	return nil
}

// ValidateTestIDs validates a whole selection.
func ValidateTestIDs(ids []string) error {
	if len(ids) == 0 {
		return ErrEmptyTestIDs
	}
	for _, id := range ids {
		if err := ValidateTestID(id); err != nil {
			return err
		}
	}
	return nil
}

// BuildFilter returns a grep expression matching any test tagged @<id> for one of ids.
// The trailing lookahead keeps @AUTH-001 from matching @AUTH-0010.
// On windows the tool is started through cmd.exe, so the expression is quoted
// to survive as one shell token.
func BuildFilter(ids []string, goos string) string {
	quoted := make([]string, 0, len(ids))
	for _, id := range ids {
		quoted = append(quoted, regexp.QuoteMeta(id))
	}
	expr := `@(?:` + strings.Join(quoted, "|") + `)(?![\w-])`
	if goos == "windows" {
		expr = `"` + expr + `"`
	}
	return expr
}
