package cart

import "github.com/shopspring/decimal"

// Line is one product/size/quantity entry in the cart. Price is the unit
// price captured when the product was added.
type Line struct {
	ProductID string  `json:"_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"selectedSize"`
}

// LineKey identifies a line: the same product in two sizes is two lines.
type LineKey struct {
	ProductID string
	Size      string
}

func (l Line) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.Size}
}

// Subtotal is price × quantity.
func (l Line) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}
