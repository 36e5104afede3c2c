package handlers

import (
	"math"

	"github.com/shopspring/decimal"

	blackscholes "github.com/jwaldner/blackscholes/blackscholes_lib"
	"github.com/jwaldner/blackscholes/internal/models"
)

const notAvailable = "n/a"

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// round returns v rounded half away from zero to places decimals
func round(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}

// Formatter methods for dual format response. Non-finite values have no raw
// value and display as n/a.
func formatCurrency(value float64) models.FieldValue {
	if !finite(value) {
		return models.FieldValue{Display: notAvailable, Type: "currency"}
	}
	return models.FieldValue{
		Raw:     value,
		Display: "$" + round(value, 2).StringFixed(2),
		Type:    "currency",
	}
}

// formatPercentage formats a value that is already in percent
func formatPercentage(value float64) models.FieldValue {
	if !finite(value) {
		return models.FieldValue{Display: notAvailable, Type: "percentage"}
	}
	return models.FieldValue{
		Raw:     value,
		Display: round(value, 2).StringFixed(2) + "%",
		Type:    "percentage",
	}
}

func formatGreek(value float64) models.FieldValue {
	if !finite(value) {
		return models.FieldValue{Display: notAvailable, Type: "greek"}
	}
	return models.FieldValue{
		Raw:     value,
		Display: round(value, 4).StringFixed(4),
		Type:    "greek",
	}
}

// formatFraction shows a price in 32nds, the way bond and option quotes are read
func formatFraction(value float64) models.FieldValue {
	if !finite(value) {
		return models.FieldValue{Display: notAvailable, Type: "fraction"}
	}
	return models.FieldValue{
		Raw:     value,
		Display: blackscholes.Fraction(value),
		Type:    "fraction",
	}
}

func formatText(value string) models.FieldValue {
	return models.FieldValue{
		Raw:     value,
		Display: value,
		Type:    "text",
	}
}

// convertToFormattedResult builds the display fields of a priced option
func convertToFormattedResult(in blackscholes.MarketInputs, g blackscholes.Greeks) models.FormattedResult {
	optionType := "put"
	if in.IsCall {
		optionType = "call"
	}
	return models.FormattedResult{
		"option_type":  formatText(optionType),
		"stock_price":  formatCurrency(in.StockPrice),
		"strike_price": formatCurrency(in.StrikePrice),
		"rate":         formatPercentage(in.RatePercent),
		"volatility":   formatPercentage(in.VolPercent),
		"price":        formatCurrency(g.Price),
		"price_32nds":  formatFraction(g.Price),
		"delta":        formatGreek(g.Delta),
		"gamma":        formatGreek(g.Gamma),
		"vega":         formatGreek(g.Vega),
		"theta":        formatGreek(g.Theta),
		"rho":          formatGreek(g.Rho),
	}
}
