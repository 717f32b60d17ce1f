package inventory

import "github.com/shopspring/decimal"

// WeightedUnitPrice precio unitario promedio ponderado tras reponer un lote.
// Nuevo = ((CantActual * PrecioActual) + (CantEntrada * PrecioEntrada)) / (CantActual + CantEntrada)
func WeightedUnitPrice(currentQty int, currentPrice decimal.Decimal, inQty int, inPrice decimal.Decimal) decimal.Decimal {
	sum := currentQty + inQty
	if sum <= 0 {
		return inPrice
	}
	cur := decimal.NewFromInt(int64(currentQty))
	in := decimal.NewFromInt(int64(inQty))
	num := cur.Mul(currentPrice).Add(in.Mul(inPrice))
	return num.Div(decimal.NewFromInt(int64(sum))).Round(4)
}
