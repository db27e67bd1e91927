package domain

// Side represents the direction of a trade.
type Side string

// Side constants.
const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Complement returns the opposite side.
func (s Side) Complement() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Valid reports whether the side is one of the known constants.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}
