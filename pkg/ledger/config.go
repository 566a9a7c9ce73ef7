package ledger

import "time"

// NonNegativePolicy selects how invariant B2 (non-negativity) is
// enforced across account kinds (spec §6.5).
type NonNegativePolicy string

const (
	// PolicyStrict enforces balance >= 0 for every non-SYSTEM account.
	PolicyStrict NonNegativePolicy = "strict"
	// PolicyAllowNegativeForKinds enforces strict non-negativity for all
	// kinds except those named in Config.AllowNegativeForKinds (e.g.
	// CREDIT accounts carrying a revolving balance).
	PolicyAllowNegativeForKinds NonNegativePolicy = "allowNegativeForKinds"
)

// Config holds the recognized knobs of spec §6.5.
type Config struct {
	NonNegativePolicy     NonNegativePolicy
	AllowNegativeForKinds []AccountKind
	ConcurrencyMaxRetries int
	ConcurrencyBaseBackoff time.Duration
	SweepStalenessThreshold time.Duration
	AmountMaxUnits        string
	AmountScale           int
}

// DefaultConfig returns the defaults named in spec §6.5.
func DefaultConfig() Config {
	return Config{
		NonNegativePolicy:       PolicyStrict,
		ConcurrencyMaxRetries:   3,
		ConcurrencyBaseBackoff:  10 * time.Millisecond,
		SweepStalenessThreshold: 60 * time.Second,
		AmountMaxUnits:          "100000000000",
		AmountScale:             2,
	}
}

// AllowsNegative reports whether accounts of kind k are exempt from
// invariant B2 under this configuration. SYSTEM accounts are always
// exempt (spec §4.4).
func (c Config) AllowsNegative(k AccountKind) bool {
	if k == System {
		return true
	}
	if c.NonNegativePolicy != PolicyAllowNegativeForKinds {
		return false
	}
	for _, allowed := range c.AllowNegativeForKinds {
		if allowed == k {
			return true
		}
	}
	return false
}
