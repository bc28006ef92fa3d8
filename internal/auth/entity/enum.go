package entity

// RateScope identifies which fixed-window counter a request is charged to.
type RateScope int

const (
	// RateScopeEmail throttles per requesting email address.
	RateScopeEmail RateScope = iota
	// RateScopeIP throttles per origin IP address.
	RateScopeIP
)

// String returns the scope name used in logs.
func (s RateScope) String() string {
	switch s {
	case RateScopeEmail:
		return "email"
	case RateScopeIP:
		return "ip"
	default:
		return "unknown"
	}
}
