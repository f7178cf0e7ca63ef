package entity

import (
	"strconv"
	"strings"
)

// ThreadMessage is one prior message of a Slack thread.
type ThreadMessage struct {
	Timestamp string
	Text      string
	UserID    string
	BotID     string // set when the message was authored by a bot
}

// IsFromBot reports whether the message was posted by a bot user.
func (m ThreadMessage) IsFromBot() bool {
	return m.BotID != ""
}

// CompareTimestamps compares two Slack timestamps ("1700000000.000100") numerically.
// It returns -1, 0 or +1. Timestamps that cannot be parsed order before valid ones.
func CompareTimestamps(a, b string) int {
	as, af, aok := parseTimestamp(a)
	bs, bf, bok := parseTimestamp(b)

	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}

	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}

// parseTimestamp splits a timestamp into whole seconds and nanoseconds.
// float64 cannot hold sixteen significant digits exactly, so the parts are parsed separately.
func parseTimestamp(ts string) (sec, nsec int64, ok bool) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return 0, 0, false
	}

	whole, frac, _ := strings.Cut(ts, ".")
	if whole == "" {
		whole = "0"
	}
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || sec < 0 {
		return 0, 0, false
	}

	if frac == "" {
		return sec, 0, true
	}
	if len(frac) > 9 {
		frac = frac[:9]
	}
	frac += strings.Repeat("0", 9-len(frac))
	nsec, err = strconv.ParseInt(frac, 10, 64)
	if err != nil || nsec < 0 {
		return 0, 0, false
	}

	return sec, nsec, true
}
