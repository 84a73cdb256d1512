package risk

import "math"

// RR returns the reward-to-risk ratio of an entry/stop/take triple, 0 when
// the stop sits on the entry.
func RR(entry, stop, take float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(take - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RiskAmount is the account-currency loss if the stop is hit.
func RiskAmount(lots, contractSize, entry, stop float64) float64 {
	return math.Abs(entry-stop) * lots * contractSize
}
