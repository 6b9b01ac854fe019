package enum

// OrderStatus registered, partial filled, filled, canceled, rejected
type OrderStatus uint8

const (
	_order_status_beg OrderStatus = iota
	OrderStatusRegistered
	OrderStatusPartialFilled
	OrderStatusFilled
	OrderStatusCanceled
	OrderStatusRejected
	_order_status_end
)

func (s OrderStatus) IsAvailable() bool {
	return s > _order_status_beg && s < _order_status_end
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected:
		return true
	default:
		return false
	}
}

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusRegistered:
		return "registered"
	case OrderStatusPartialFilled:
		return "partial_filled"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusCanceled:
		return "canceled"
	case OrderStatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// GrossSign positive, negative, flat
type GrossSign uint8

const (
	GrossSignFlat GrossSign = iota
	GrossSignPositive
	GrossSignNegative
)

func (g GrossSign) String() string {
	switch g {
	case GrossSignPositive:
		return "positive"
	case GrossSignNegative:
		return "negative"
	default:
		return "flat"
	}
}
