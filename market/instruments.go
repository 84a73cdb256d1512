package market

import "math"

// InstrumentMeta describes the contract conventions for one tradeable
// instrument. PipValue is the account-currency value of one pip per lot,
// ContractSize the units per lot (100_000 for standard FX lots).
type InstrumentMeta struct {
	Name            string
	BaseCurrency    string
	QuoteCurrency   string
	PipLocation     int     // pip = 10^PipLocation, e.g. -4 for EUR_USD
	PipValue        float64 // account currency per pip per lot
	ContractSize    float64
	MarginRate      float64 // 0.02 = 50:1 leverage
	MinTradeLots    float64
	DefaultStopPips float64 // stop distance used when a signal carries none
}

// PipSize returns the price increment of one pip for a pip location.
func PipSize(loc int) float64 {
	return math.Pow(10, float64(loc))
}

// Catalog is an explicit instrument registry. One catalog is constructed per
// engine and passed where needed; there is no package-level instrument table.
type Catalog struct {
	instruments map[string]InstrumentMeta
}

func NewCatalog(metas ...InstrumentMeta) *Catalog {
	c := &Catalog{instruments: make(map[string]InstrumentMeta, len(metas))}
	for _, m := range metas {
		c.instruments[m.Name] = m
	}
	return c
}

// DefaultCatalog covers the majors with standard lot conventions.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		InstrumentMeta{
			Name:            "EUR_USD",
			BaseCurrency:    "EUR",
			QuoteCurrency:   "USD",
			PipLocation:     -4,
			PipValue:        10,
			ContractSize:    100_000,
			MarginRate:      0.02,
			MinTradeLots:    0.01,
			DefaultStopPips: 50,
		},
		InstrumentMeta{
			Name:            "GBP_USD",
			BaseCurrency:    "GBP",
			QuoteCurrency:   "USD",
			PipLocation:     -4,
			PipValue:        10,
			ContractSize:    100_000,
			MarginRate:      0.02,
			MinTradeLots:    0.01,
			DefaultStopPips: 50,
		},
		InstrumentMeta{
			Name:            "USD_JPY",
			BaseCurrency:    "USD",
			QuoteCurrency:   "JPY",
			PipLocation:     -2,
			PipValue:        10,
			ContractSize:    100_000,
			MarginRate:      0.02,
			MinTradeLots:    0.01,
			DefaultStopPips: 50,
		},
	)
}

func (c *Catalog) Add(m InstrumentMeta) {
	c.instruments[m.Name] = m
}

func (c *Catalog) Lookup(name string) (InstrumentMeta, bool) {
	m, ok := c.instruments[name]
	return m, ok
}

// Meta returns the metadata for name, or a generic non-FX fallback: pip
// location -4, pip value 10, contract size 1, 1% margin.
func (c *Catalog) Meta(name string) InstrumentMeta {
	if m, ok := c.instruments[name]; ok {
		return m
	}
	return InstrumentMeta{
		Name:         name,
		PipLocation:  -4,
		PipValue:     10,
		ContractSize: 1,
		MarginRate:   0.01,
		MinTradeLots: 0.01,
	}
}

// StopDistance returns the default stop distance in price units for an
// instrument: DefaultStopPips converted through the pip size, or 1% of the
// entry price for instruments the catalog does not know.
func (c *Catalog) StopDistance(name string, entryPrice float64) float64 {
	if m, ok := c.instruments[name]; ok && m.DefaultStopPips > 0 {
		return m.DefaultStopPips * PipSize(m.PipLocation)
	}
	return entryPrice * 0.01
}

// Names lists all registered instruments.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.instruments))
	for name := range c.instruments {
		out = append(out, name)
	}
	return out
}
