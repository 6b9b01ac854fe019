package enum

// StopMode selects how a triggered stop exit is priced.
type StopMode uint8

const (
	_stop_mode_beg StopMode = iota

	// StopModeMarket prices at the instrument's price bound extreme.
	StopModeMarket
	// StopModeMarketLimitOfferForced prices at the best opposite quote with a 0.15% forcing offset.
	StopModeMarketLimitOfferForced
	// StopModeMarketLimitOffer prices at the best opposite quote, no offset.
	StopModeMarketLimitOffer
	// StopModeMarketLimitForced prices into the spread with a 0.5% forcing offset.
	StopModeMarketLimitForced
	// StopModeMarketLimitLight prices into the spread with a 0.15% forcing offset.
	StopModeMarketLimitLight
	// StopModeSpreadZero prices at the best same-side quote. Cheapest, may rest unfilled.
	StopModeSpreadZero

	_stop_mode_end
)

func (m StopMode) IsAvailable() bool {
	return m > _stop_mode_beg && m < _stop_mode_end
}

func (m StopMode) String() string {
	switch m {
	case StopModeMarket:
		return "market"
	case StopModeMarketLimitOfferForced:
		return "market_limit_offer_forced"
	case StopModeMarketLimitOffer:
		return "market_limit_offer"
	case StopModeMarketLimitForced:
		return "market_limit_forced"
	case StopModeMarketLimitLight:
		return "market_limit_light"
	case StopModeSpreadZero:
		return "spread_zero"
	default:
		return "unknown"
	}
}

// StopModeFromString parses the config representation of a stop mode.
func StopModeFromString(s string) (StopMode, bool) {
	for m := _stop_mode_beg + 1; m < _stop_mode_end; m++ {
		if m.String() == s {
			return m, true
		}
	}
	return _stop_mode_beg, false
}
