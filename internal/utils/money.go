package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Nombre de décimales de l'unité mineure, 2 par défaut
var minorUnitExponent = map[string]int32{
	"jpy": 0,
	"krw": 0,
	"huf": 2,
	"bhd": 3,
	"kwd": 3,
	"tnd": 3,
}

var currencySymbols = map[string]string{
	"eur": "€",
	"usd": "$",
	"gbp": "£",
	"chf": "CHF ",
	"jpy": "¥",
}

// MinorUnitsToDecimal convertit sans passer par un flottant
func MinorUnitsToDecimal(amount int64, currency string) decimal.Decimal {
	exp, ok := minorUnitExponent[strings.ToLower(currency)]
	if !ok {
		exp = 2
	}
	return decimal.New(amount, -exp)
}

// FormatMinorUnits : 5000 eur → "€50.00"
func FormatMinorUnits(amount int64, currency string) string {
	cur := strings.ToLower(currency)
	exp, ok := minorUnitExponent[cur]
	if !ok {
		exp = 2
	}
	value := MinorUnitsToDecimal(amount, cur).StringFixed(exp)
	if symbol, ok := currencySymbols[cur]; ok {
		if strings.HasPrefix(value, "-") {
			return "-" + symbol + strings.TrimPrefix(value, "-")
		}
		return symbol + value
	}
	return value + " " + strings.ToUpper(cur)
}
