package ledger

import "errors"

// Structural errors returned by Open and Close. All are recoverable by the
// caller; nothing the ledger reports is fatal to the process.
var (
	ErrInvalidSize      = errors.New("position size must be positive")
	ErrInvalidPrice     = errors.New("entry price must be positive")
	ErrPositionNotFound = errors.New("position not found")
)

// Reason is the admission verdict from CanOpen. Refusals are ordinary data,
// not errors: hitting a risk limit is an expected, frequent outcome.
type Reason string

const (
	ReasonAllowed             Reason = "ALLOWED"
	ReasonDailyLossLimit      Reason = "DAILY_LOSS_LIMIT"
	ReasonDrawdownLimit       Reason = "DRAWDOWN_LIMIT"
	ReasonPositionLimit       Reason = "POSITION_LIMIT"
	ReasonDailyTradeLimit     Reason = "DAILY_TRADE_LIMIT"
	ReasonDuplicateInstrument Reason = "DUPLICATE_INSTRUMENT"
	ReasonInsufficientMargin  Reason = "INSUFFICIENT_MARGIN"
)
