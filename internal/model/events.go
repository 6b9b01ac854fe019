package model

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// Tick is one market trade observed on the venue's public stream.
// It is any participant's trade, not necessarily our own.
type Tick struct {
	Instrument string
	Price      decimal.Decimal
	Volume     decimal.Decimal
	Time       time.Time
}

// OwnFill is a confirmed execution of one of this strategy's orders.
type OwnFill struct {
	FillID     string
	Ref        OrderRef
	Tag        string
	Instrument string
	// Side is the direction of the filled order itself, not of the
	// position: DirectionLong is a buy, DirectionShort is a sell.
	Side   enum.Direction
	Price  decimal.Decimal
	Volume decimal.Decimal
	Time   time.Time
}

// OrderEvent is one lifecycle transition reported by the venue.
type OrderEvent struct {
	Status     enum.OrderStatus
	Ref        OrderRef
	Tag        string
	Instrument string
	Reason     string
}

// Quotes is the current top of book for one instrument.
type Quotes struct {
	BestBid decimal.Decimal
	BestAsk decimal.Decimal
	HasBid  bool
	HasAsk  bool
}
