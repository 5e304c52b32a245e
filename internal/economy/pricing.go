package economy

import "github.com/ocx/edge-coordinator/internal/spacetime"

const quoteValidityNs = 60_000_000_000

// PricingConfig tunes the demand/time-sensitive dynamic pricing model.
type PricingConfig struct {
	BasePrice         uint64
	MinPrice          uint64
	MaxPrice          uint64
	DemandSensitivity float32
	TimeSensitivity   float32
}

// DefaultPricingConfig mirrors sap-economy's reference defaults.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{BasePrice: 100, MinPrice: 10, MaxPrice: 10000, DemandSensitivity: 0.5, TimeSensitivity: 0.3}
}

// PriceQuote is a dynamically computed price for a VTS slot, valid for 60s.
type PriceQuote struct {
	VtsID            spacetime.VtsID
	Price            uint64
	BasePrice        uint64
	DemandMultiplier float32
	TimeMultiplier   float32
	ValidUntilNs     uint64
}

// PricingEngine derives a VTS slot's quote from recorded demand and the
// last settled transaction price for that slot.
type PricingEngine struct {
	config       PricingConfig
	demandCounts map[spacetime.VtsID]uint32
	lastPrices   map[spacetime.VtsID]uint64
	quoteCount   uint64
}

func NewPricingEngine(config PricingConfig) *PricingEngine {
	return &PricingEngine{config: config, demandCounts: make(map[spacetime.VtsID]uint32), lastPrices: make(map[spacetime.VtsID]uint64)}
}

func NewDefaultPricingEngine() *PricingEngine {
	return NewPricingEngine(DefaultPricingConfig())
}

// RecordDemand increments vtsID's demand counter.
func (e *PricingEngine) RecordDemand(vtsID spacetime.VtsID) {
	e.demandCounts[vtsID]++
}

// RecordTransaction stores price as vtsID's last transaction price and
// decrements its demand counter (saturating at zero).
func (e *PricingEngine) RecordTransaction(vtsID spacetime.VtsID, price uint64) {
	e.lastPrices[vtsID] = price
	if count, ok := e.demandCounts[vtsID]; ok && count > 0 {
		e.demandCounts[vtsID] = count - 1
	}
}

// Quote computes a PriceQuote for vtsID, valid for 60 seconds from
// currentTimeNs.
func (e *PricingEngine) Quote(vtsID spacetime.VtsID, currentTimeNs uint64) PriceQuote {
	demand := e.demandCounts[vtsID]
	lastPrice, ok := e.lastPrices[vtsID]
	if !ok {
		lastPrice = e.config.BasePrice
	}

	demandMultiplier := float32(1.0) + float32(demand)*0.1*e.config.DemandSensitivity
	timeMultiplier := float32(1.0) + e.config.TimeSensitivity*0.1

	computed := uint64(float32(lastPrice) * demandMultiplier * timeMultiplier)
	price := computed
	if price < e.config.MinPrice {
		price = e.config.MinPrice
	}
	if price > e.config.MaxPrice {
		price = e.config.MaxPrice
	}

	e.quoteCount++
	return PriceQuote{
		VtsID:            vtsID,
		Price:            price,
		BasePrice:        lastPrice,
		DemandMultiplier: demandMultiplier,
		TimeMultiplier:   timeMultiplier,
		ValidUntilNs:     currentTimeNs + quoteValidityNs,
	}
}

func (e *PricingEngine) GetDemand(vtsID spacetime.VtsID) uint32 { return e.demandCounts[vtsID] }

func (e *PricingEngine) GetLastPrice(vtsID spacetime.VtsID) (uint64, bool) {
	price, ok := e.lastPrices[vtsID]
	return price, ok
}

func (e *PricingEngine) QuoteCount() uint64 { return e.quoteCount }

func (e *PricingEngine) ResetDemand(vtsID spacetime.VtsID) { delete(e.demandCounts, vtsID) }
