// Package compliance computes the network / free-market monetary split for an
// order's line set and checks it against the 80% minimum network spend rule.
// It is pure: no I/O, no clock, no persistence.
package compliance

import (
	"github.com/shopspring/decimal"

	"github.com/drivncook/supply-backend/pkg/enums"
)

var (
	hundred = decimal.NewFromInt(100)
	// MinimumNetworkPercent is the mandatory share of order value that must
	// originate from network warehouses.
	MinimumNetworkPercent = decimal.NewFromInt(80)
)

// LineShare is one line's contribution: the sourcing warehouse's current
// classification and the line total.
type LineShare struct {
	Kind   enums.WarehouseKind
	Amount decimal.Decimal
}

// Breakdown is the monetary split of an order. NetworkAmount and
// FreeMarketAmount always sum to TotalAmount.
type Breakdown struct {
	TotalAmount      decimal.Decimal `json:"total_amount"`
	NetworkAmount    decimal.Decimal `json:"network_amount"`
	FreeMarketAmount decimal.Decimal `json:"free_market_amount"`
}

// Compute sums line shares into a breakdown.
func Compute(shares []LineShare) Breakdown {
	network := decimal.Zero
	freeMarket := decimal.Zero
	for _, share := range shares {
		if share.Kind == enums.WarehouseKindNetwork {
			network = network.Add(share.Amount)
		} else {
			freeMarket = freeMarket.Add(share.Amount)
		}
	}
	return Breakdown{
		TotalAmount:      network.Add(freeMarket),
		NetworkAmount:    network,
		FreeMarketAmount: freeMarket,
	}
}

// Compliant reports whether the network share meets the 80% minimum. The
// comparison is exact rational arithmetic: network×100 ≥ total×80, so a split
// landing exactly on 80.0% passes without floating-point drift. An empty
// order is trivially compliant.
func (b Breakdown) Compliant() bool {
	if b.TotalAmount.IsZero() {
		return true
	}
	return b.NetworkAmount.Mul(hundred).GreaterThanOrEqual(b.TotalAmount.Mul(MinimumNetworkPercent))
}

// RatioPercent is the network share as a percentage rounded to one decimal
// place for user-facing messages. An empty order reports 100%.
func (b Breakdown) RatioPercent() decimal.Decimal {
	if b.TotalAmount.IsZero() {
		return hundred
	}
	return b.NetworkAmount.Mul(hundred).DivRound(b.TotalAmount, 1)
}

// FreeMarketPercent is the free-market share as a percentage rounded to one
// decimal place. An empty order reports 0%.
func (b Breakdown) FreeMarketPercent() decimal.Decimal {
	if b.TotalAmount.IsZero() {
		return decimal.Zero
	}
	return b.FreeMarketAmount.Mul(hundred).DivRound(b.TotalAmount, 1)
}
