// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing yen amounts from loosely formatted
// sheet cells and model output, and for rendering them back for display.
package core

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Yen is a signed whole-yen amount.
type Yen int64

var ErrInvalidAmount = errors.New("invalid amount")

var maxYen = decimal.NewFromInt(math.MaxInt64)

var amountNoise = strings.NewReplacer("¥", "", "￥", "", "円", "", ",", "", "，", "", " ", "", " ", "")

// ParseAmount converts a cell value into whole yen.
//
// It accepts thousands separators, a yen sign or suffix, an explicit sign and
// fractional or exponent notation (Sheets hands large numbers back as floats).
// Fractions are rounded half away from zero.
//
// Examples:
//
//	ParseAmount("1,234,567")  -> 1234567, nil
//	ParseAmount("¥-50,000")   -> -50000, nil
//	ParseAmount("1.15E+06")   -> 1150000, nil
//	ParseAmount("272647.5")   -> 272648, nil
func ParseAmount(s string) (Yen, error) {
	s = amountNoise.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// "¥-50,000" leaves the sign after the currency symbol, which is fine; a
	// trailing minus (accounting style) is not.
	if strings.HasSuffix(s, "-") || strings.HasSuffix(s, "+") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	d = d.Round(0)
	if d.Abs().GreaterThan(maxYen) {
		return 0, ErrInvalidAmount
	}
	return Yen(d.IntPart()), nil
}

// String formats the amount for display, e.g. "¥1,150,000".
func (y Yen) String() string {
	return money.New(int64(y), money.JPY).Display()
}

// Signed formats a delta with an explicit sign, e.g. "+¥200,000".
func (y Yen) Signed() string {
	switch {
	case y > 0:
		return "+" + y.String()
	case y < 0:
		return "-" + (-y).String()
	default:
		return "±" + y.String()
	}
}

// Plain is the unformatted integer written back to the store.
func (y Yen) Plain() string {
	return strconv.FormatInt(int64(y), 10)
}
