package risk

import "fmt"

// Config holds the per-account risk limits. It is immutable input: construct
// one, validate it, hand it to the ledger. Zero limits mean "no limit" except
// where noted.
type Config struct {
	// Seed balance for a fresh ledger, account currency.
	Balance float64 `json:"balance" yaml:"balance"`

	// Fraction of balance put at risk per trade (0.02 = 2%).
	MaxRiskPerTrade float64 `json:"max_risk_per_trade" yaml:"max_risk_per_trade"`

	// Exposure limits.
	MaxPositions   int     `json:"max_positions" yaml:"max_positions"`
	MaxDailyTrades int     `json:"max_daily_trades" yaml:"max_daily_trades"`
	MaxDailyLoss   float64 `json:"max_daily_loss" yaml:"max_daily_loss"`

	// Circuit breaker: refuse new entries once observed drawdown reaches
	// this amount in account currency.
	MaxDrawdown float64 `json:"max_drawdown" yaml:"max_drawdown"`

	// Lot clamp applied after sizing.
	MinLots float64 `json:"min_lots" yaml:"min_lots"`
	MaxLots float64 `json:"max_lots" yaml:"max_lots"`
}

// DefaultConfig mirrors a small retail account: 2% risk, three concurrent
// positions, micro-lot floor, one standard lot ceiling.
func DefaultConfig(balance float64) Config {
	return Config{
		Balance:         balance,
		MaxRiskPerTrade: 0.02,
		MaxPositions:    3,
		MaxDailyTrades:  10,
		MaxDailyLoss:    balance * 0.05,
		MaxDrawdown:     balance * 0.20,
		MinLots:         0.01,
		MaxLots:         1.0,
	}
}

func (c Config) Validate() error {
	if c.Balance <= 0 {
		return fmt.Errorf("risk: balance must be positive, got %.2f", c.Balance)
	}
	if c.MaxRiskPerTrade <= 0 || c.MaxRiskPerTrade > 1 {
		return fmt.Errorf("risk: max_risk_per_trade must be in (0, 1], got %.4f", c.MaxRiskPerTrade)
	}
	if c.MaxPositions < 0 {
		return fmt.Errorf("risk: max_positions must not be negative, got %d", c.MaxPositions)
	}
	if c.MaxDailyTrades < 0 {
		return fmt.Errorf("risk: max_daily_trades must not be negative, got %d", c.MaxDailyTrades)
	}
	if c.MaxDailyLoss < 0 {
		return fmt.Errorf("risk: max_daily_loss must not be negative, got %.2f", c.MaxDailyLoss)
	}
	if c.MaxDrawdown < 0 {
		return fmt.Errorf("risk: max_drawdown must not be negative, got %.2f", c.MaxDrawdown)
	}
	if c.MinLots <= 0 {
		return fmt.Errorf("risk: min_lots must be positive, got %.4f", c.MinLots)
	}
	if c.MaxLots < c.MinLots {
		return fmt.Errorf("risk: max_lots %.4f below min_lots %.4f", c.MaxLots, c.MinLots)
	}
	return nil
}
