package credentials

import (
	"errors"
	"strings"

	"go.uber.org/atomic"
)

var ErrNoCredentials = errors.New("no provider credentials configured")

// Rotator hands out provider API keys in round-robin order. All keys must be
// valid against the same provider account pool, since an app created with one
// key may later be deleted with another.
type Rotator struct {
	keys []string
	next atomic.Uint64
}

func NewRotator(keys []string) (*Rotator, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if trimmed := strings.TrimSpace(k); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoCredentials
	}
	return &Rotator{keys: cleaned}, nil
}

// Select returns the next key. Safe for concurrent use.
func (r *Rotator) Select() string {
	n := r.next.Inc() - 1
	return r.keys[n%uint64(len(r.keys))]
}

func (r *Rotator) Len() int {
	return len(r.keys)
}
