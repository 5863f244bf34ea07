package sequence

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrExhausted means the 3-digit daily sequence hit its 999 cap.
	ErrExhausted = errors.New("sequence: daily number range exhausted")
	// ErrConflictExhausted means the retry budget was spent on
	// uniqueness collisions. Callers surface this as "try again later".
	ErrConflictExhausted = errors.New("sequence: number conflict retries exhausted")
)

const (
	maxPerDay   = 999
	maxAttempts = 5
)

// NumberSource reads the highest generated number persisted under a
// prefix. Implementations must include soft-deleted rows so a number is
// never reissued against the unique index.
type NumberSource interface {
	MaxNumber(prefix string) (string, bool, error)
}

// Next derives the next formatted number for prefix+dateKey, e.g.
// Next(src, "LOT-", "20240101") -> "LOT-20240101-003". The read is not
// atomic against concurrent writers; the caller inserts under a unique
// constraint and retries via WithRetry on collision.
func Next(src NumberSource, prefix, dateKey string) (string, error) {
	full := prefix + dateKey + "-"

	last, ok, err := src.MaxNumber(full)
	if err != nil {
		return "", fmt.Errorf("sequence: read max for %s: %w", full, err)
	}
	next := 1
	if ok {
		seq, err := strconv.Atoi(last[strings.LastIndex(last, "-")+1:])
		if err != nil {
			return "", fmt.Errorf("sequence: malformed number %q: %w", last, err)
		}
		next = seq + 1
	}
	if next > maxPerDay {
		return "", fmt.Errorf("%w: %s", ErrExhausted, full)
	}
	return full + fmt.Sprintf("%03d", next), nil
}

// WithRetry runs fn, retrying only on uniqueness violations with a
// 50-150ms randomized backoff and a hard cap of 5 attempts. Any other
// error propagates immediately.
func WithRetry(fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsUniqueViolation(err) {
			return err
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w: %d attempts", ErrConflictExhausted, attempt)
		}
		time.Sleep(time.Duration(50+rand.Intn(100)) * time.Millisecond)
	}
}

// IsUniqueViolation reports whether err is a duplicate-key error from
// MySQL (1062) or sqlite, or a gorm-translated one.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
