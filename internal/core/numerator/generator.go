package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Generator hands out sequential numbers per owner, prefix and day.
// Implementations must allocate atomically so concurrent callers never
// receive the same value. An allocation is committed on its own, outside any
// caller transaction, so a rolled-back insert leaves a gap and a retry draws
// a fresh number.
type Generator interface {
	// Next returns the next number, e.g. INV-20261014-0001.
	Next(ctx context.Context, ownerID string, cfg Config, day time.Time) (string, error)

	// Seed raises the counter for a day so the next number is above value.
	// Used when importing rows numbered by the legacy max-scan.
	Seed(ctx context.Context, ownerID string, cfg Config, day time.Time, value int64) error
}

// Key builds the counter key for a prefix and day.
func Key(cfg Config, day time.Time) string {
	return cfg.Prefix + "_" + day.Format(cfg.dateLayout())
}

// Format renders the final number string.
func Format(cfg Config, day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, day.Format(cfg.dateLayout()), cfg.padWidth(), seq)
}

// ParseSequence extracts the numeric suffix of a formatted number.
// Returns -1 if the number does not end in a numeric segment.
func ParseSequence(formatted string) int64 {
	i := strings.LastIndex(formatted, "-")
	if i < 0 || i == len(formatted)-1 {
		return -1
	}
	n, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// Parse splits a formatted number into its day and sequence.
// ok is false when the prefix or date segment does not match cfg.
func Parse(cfg Config, formatted string) (day time.Time, seq int64, ok bool) {
	rest, found := strings.CutPrefix(formatted, cfg.Prefix+"-")
	if !found {
		return time.Time{}, 0, false
	}
	i := strings.LastIndex(rest, "-")
	if i <= 0 {
		return time.Time{}, 0, false
	}
	day, err := time.Parse(cfg.dateLayout(), rest[:i])
	if err != nil {
		return time.Time{}, 0, false
	}
	if seq = ParseSequence(rest); seq < 0 {
		return time.Time{}, 0, false
	}
	return day, seq, true
}

// IssuedNumber is a number already stored for an owner.
type IssuedNumber struct {
	OwnerID string
	Number  string
}

// SeedFrom raises every (owner, day) counter of cfg to the highest issued
// sequence, so Next continues after numbers assigned outside the counter.
// Numbers that do not match cfg are skipped. It returns the counters touched.
func SeedFrom(ctx context.Context, gen Generator, cfg Config, issued []IssuedNumber) (int, error) {
	type counter struct {
		owner string
		day   string
	}
	highest := make(map[counter]int64)
	days := make(map[counter]time.Time)
	for _, n := range issued {
		day, seq, ok := Parse(cfg, n.Number)
		if !ok {
			continue
		}
		k := counter{owner: n.OwnerID, day: day.Format(cfg.dateLayout())}
		if seq > highest[k] {
			highest[k] = seq
			days[k] = day
		}
	}

	for k, seq := range highest {
		if err := gen.Seed(ctx, k.owner, cfg, days[k], seq); err != nil {
			return 0, fmt.Errorf("seed %s for %s: %w", Key(cfg, days[k]), k.owner, err)
		}
	}
	return len(highest), nil
}
