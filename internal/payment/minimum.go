package payment

import "strings"

// Montants minimums acceptés par Stripe, en unités mineures
var minimumAmounts = map[string]int64{
	"usd": 50,
	"eur": 50,
	"gbp": 30,
	"chf": 50,
	"cad": 50,
	"aud": 50,
	"nzd": 50,
	"sgd": 50,
	"jpy": 50,
	"brl": 50,
	"inr": 50,
	"bgn": 100,
	"pln": 200,
	"ron": 200,
	"aed": 200,
	"dkk": 250,
	"nok": 300,
	"sek": 300,
	"hkd": 400,
	"mxn": 1000,
	"czk": 1500,
	"huf": 17500,
}

const defaultMinimumAmount = 50

func MinimumAmount(currency string) int64 {
	if m, ok := minimumAmounts[strings.ToLower(currency)]; ok {
		return m
	}
	return defaultMinimumAmount
}
