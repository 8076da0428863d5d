package stock

import "math"

// Tramos del impuesto a la ganancia, acumulativos sobre múltiplos del
// promedio de monedas del grupo: hasta 1x libre, y de ahí escala.
var taxBrackets = []struct {
	upTo float64 // múltiplo del promedio donde termina el tramo
	rate float64
}{
	{1, 0.00},
	{2, 0.10},
	{3, 0.20},
	{5, 0.30},
	{10, 0.50},
	{math.Inf(1), 0.75},
}

// ProgressiveTax calcula el impuesto sobre una ganancia positiva dado
// el promedio de monedas del grupo. Devuelve el impuesto y la tasa
// efectiva sobre la ganancia.
func ProgressiveTax(profit, avgCoins float64) (tax, effectiveRate float64) {
	if profit <= 0 || avgCoins <= 0 {
		return 0, 0
	}
	prev := 0.0
	for _, b := range taxBrackets {
		lo := prev * avgCoins
		hi := math.Min(b.upTo*avgCoins, profit)
		if hi > lo {
			tax += (hi - lo) * b.rate
		}
		if profit <= b.upTo*avgCoins {
			break
		}
		prev = b.upTo
	}
	tax = round2(tax)
	return tax, tax / profit
}
