package order

type Status string

const (
	StatusCreated        Status = "CREATED"
	StatusPaymentPending Status = "PAYMENT_PENDING"
	StatusPaid           Status = "PAID"
)

// transitions is the closed set of allowed status moves. PAID is reachable
// from every non-terminal state because the provider may confirm a payment
// session this process never saw move to PAYMENT_PENDING.
var transitions = map[Status][]Status{
	StatusCreated:        {StatusPaymentPending, StatusPaid},
	StatusPaymentPending: {StatusPaid},
	StatusPaid:           {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0 && s.Valid()
}

// CanTransition reports whether moving from s to next is allowed.
// A same-status move is permitted so repeated webhook deliveries stay
// idempotent.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return s.Valid()
	}
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
