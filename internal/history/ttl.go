package history

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTTL = errors.New("invalid TTL")

// DefaultTTL is the retention window used when none is given.
const DefaultTTL = TTL(30 * 24 * time.Hour)

// TTL is a retention window written as <integer><unit> with unit one of
// d (days), h (hours) or m (minutes).
type TTL time.Duration

func (t TTL) Duration() time.Duration { return time.Duration(t) }

func (t TTL) String() string {
	d := time.Duration(t)
	switch {
	case d%(24*time.Hour) == 0:
		return strconv.FormatInt(int64(d/(24*time.Hour)), 10) + "d"
	case d%time.Hour == 0:
		return strconv.FormatInt(int64(d/time.Hour), 10) + "h"
	default:
		return strconv.FormatInt(int64(d/time.Minute), 10) + "m"
	}
}

func ParseTTL(token string) (TTL, error) {
	token = strings.TrimSpace(token)
	if len(token) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTTL, token)
	}

	var unit time.Duration
	switch token[len(token)-1] {
	case 'd':
		unit = 24 * time.Hour
	case 'h':
		unit = time.Hour
	case 'm':
		unit = time.Minute
	default:
		return 0, fmt.Errorf("%w: %q: unit must be d, h or m", ErrInvalidTTL, token)
	}

	digits := token[:len(token)-1]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: %q: amount must be a non-negative integer", ErrInvalidTTL, token)
		}
	}
	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || amount > int64(1<<63-1)/int64(unit) {
		return 0, fmt.Errorf("%w: %q: amount out of range", ErrInvalidTTL, token)
	}
	return TTL(time.Duration(amount) * unit), nil
}
