package order

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusPaid      Status = "PAID"
	StatusDelivered Status = "DELIVERED"
)

func (s Status) String() string {
	return string(s)
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusCreated: {
		StatusPaid: true,
	},
	StatusPaid: {
		StatusDelivered: true,
	},
	StatusDelivered: {},
}

// Cash on Delivery is settled at the door, so delivery may precede payment
// and payment may be recorded after delivery.
var cashOnDeliveryTransitions = map[Status]map[Status]bool{
	StatusCreated: {
		StatusPaid:      true,
		StatusDelivered: true,
	},
	StatusPaid: {
		StatusDelivered: true,
	},
	StatusDelivered: {
		StatusPaid: true,
	},
}

func canTransition(o *Order, to Status) bool {
	rules := allowedTransitions
	if o.PaymentMethod == PaymentCashOnDelivery {
		rules = cashOnDeliveryTransitions
	}
	next, ok := rules[o.Status()]
	return ok && next[to]
}
