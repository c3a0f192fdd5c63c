package models

import "time"

// Instrument — бумага из скрип-мастера: equity-токен NSE и токен
// ближайшего фьючерса NFO. Строится один раз на старте, дальше read-only.
type Instrument struct {
	Name      string // например "RELIANCE"
	EqToken   string
	EqSymbol  string // "RELIANCE-EQ"
	FutToken  string
	FutExpiry time.Time
}
