package models

const (
	ProductIntraday = "INTRADAY"
	ProductCarry    = "CARRY"
)

// Position — позиция как её отдаёт брокер. Источник истины — брокер:
// движок перечитывает позиции каждый цикл и никогда не кэширует qty.
type Position struct {
	Symbol  string
	Token   string
	NetQty  int64  // знаковое: >0 лонг, <0 шорт
	Product string // INTRADAY / CARRY и прочие producttype брокера
}

// OpenIntraday — открытая интрадей-позиция, которую движок ведёт сам.
// Всё остальное (свинги на марже) он не трогает никогда.
func (p Position) OpenIntraday() bool {
	return p.NetQty != 0 && p.Product == ProductIntraday
}

// PendingOrder — отложенный ордер из книги ордеров. Нас интересуют
// только стоп-ордера в статусе "trigger pending".
type PendingOrder struct {
	OrderID      string
	Symbol       string
	Side         string // BUY / SELL
	Status       string
	Price        float64
	TriggerPrice float64
	Quantity     int64
}
