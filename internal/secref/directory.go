package secref

import (
	"sync"

	"github.com/shopspring/decimal"

	"main/internal/errors"
	"main/internal/model"
)

var (
	ErrInstrumentExists   = errors.New("instrument already exists")
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrInvalidTickSize    = errors.New("tick size must be > 0")
)

// Instrument is the reference data needed to price orders on one instrument.
type Instrument struct {
	Code     string
	TickSize decimal.Decimal
	// MinPrice and MaxPrice are the venue's daily price bounds, used by
	// the market stop mode as the worst acceptable limit price.
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}

// Directory holds instrument reference data and the latest top-of-book
// quotes. Reads vastly outnumber writes; quote updates come from the
// market data feed concurrently with pricing lookups.
type Directory struct {
	mu          sync.RWMutex
	instruments map[string]Instrument
	quotes      map[string]model.Quotes
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		instruments: make(map[string]Instrument),
		quotes:      make(map[string]model.Quotes),
	}
}

// Add registers an instrument.
func (d *Directory) Add(inst Instrument) error {
	if inst.Code == "" {
		return ErrInstrumentNotFound
	}
	if !inst.TickSize.IsPositive() {
		return errors.Wrapf(ErrInvalidTickSize, "instrument %s", inst.Code)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.instruments[inst.Code]; ok {
		return errors.Wrapf(ErrInstrumentExists, "instrument %s", inst.Code)
	}
	d.instruments[inst.Code] = inst
	return nil
}

// Instrument looks up reference data by code.
func (d *Directory) Instrument(code string) (Instrument, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	inst, ok := d.instruments[code]
	return inst, ok
}

// Codes returns all registered instrument codes.
func (d *Directory) Codes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.instruments))
	for code := range d.instruments {
		out = append(out, code)
	}
	return out
}

// SetQuotes stores the latest top of book for an instrument.
func (d *Directory) SetQuotes(code string, quotes model.Quotes) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.quotes[code] = quotes
}

// Quotes returns the latest top of book for an instrument. The zero value
// with HasBid/HasAsk false means no quote has been observed yet.
func (d *Directory) Quotes(code string) model.Quotes {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.quotes[code]
}
