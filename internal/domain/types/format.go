package types

import (
	"fmt"
	"math"
)

// FormatLength formatea una longitud en cm con cambio automático de
// unidad: "15cm", "1.50m", "2.30km", "-500.00m (凹)", "0cm (无)".
func FormatLength(length float64) string {
	return formatLength(length, false)
}

// FormatLengthChange formatea una variación con signo: "+15cm", "-1.50m".
func FormatLengthChange(change float64) string {
	if change >= 0 {
		return formatLength(change, true)
	}
	num, unit := scaleLength(math.Abs(change))
	return "-" + num + unit
}

func formatLength(length float64, showSign bool) string {
	if length == 0 {
		return "0cm (无)"
	}
	num, unit := scaleLength(math.Abs(length))
	if length < 0 {
		return "-" + num + unit + " (凹)"
	}
	if showSign {
		return "+" + num + unit
	}
	return num + unit
}

// scaleLength elige unidad: cm entero o con un decimal; m/km con dos.
func scaleLength(abs float64) (num, unit string) {
	switch {
	case abs >= 100000:
		return fmt.Sprintf("%.2f", abs/100000), "km"
	case abs >= 100:
		return fmt.Sprintf("%.2f", abs/100), "m"
	}
	if abs == math.Trunc(abs) {
		return fmt.Sprintf("%d", int64(abs)), "cm"
	}
	return fmt.Sprintf("%.1f", abs), "cm"
}
