// Package numerator provides domain contracts for human-readable sequential numbers.
package numerator

// Well-known number prefixes.
const (
	PrefixInvoice         = "INV"
	PrefixDeliveryOrder   = "DO"
	PrefixPurchaseRequest = "PR"
)

// DefaultDateLayout is the date part embedded in every number (YYYYMMDD).
const DefaultDateLayout = "20060102"

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "INV", "DO")
	Prefix string

	// PadWidth is the minimum width of the numeric suffix (default 4)
	PadWidth int

	// DateLayout is the Go time layout of the date segment (default YYYYMMDD).
	// The sequence restarts for every distinct date segment.
	DateLayout string
}

// DefaultConfig returns the PREFIX-YYYYMMDD-NNNN layout.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:     prefix,
		PadWidth:   4,
		DateLayout: DefaultDateLayout,
	}
}

func (c Config) padWidth() int {
	if c.PadWidth <= 0 {
		return 4
	}
	return c.PadWidth
}

func (c Config) dateLayout() string {
	if c.DateLayout == "" {
		return DefaultDateLayout
	}
	return c.DateLayout
}
