package dashboard

import (
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var german = message.NewPrinter(language.German)

// FormatCurrency renders whole euros with German digit grouping and a
// non-breaking space before the sign, e.g. "22.940\u00a0€".
func FormatCurrency(v float64) string {
	return german.Sprintf("%d", int64(math.Round(v))) + "\u00a0€"
}

// FormatDelta renders a signed percentage with one decimal; non-negative values
// carry a leading "+".
func FormatDelta(v float64) string {
	if v == 0 {
		v = 0 // drop negative zero
	}
	sign := ""
	if v >= 0 {
		sign = "+"
	}
	return sign + strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// FormatPercent renders v with the given number of decimals and a "%" suffix.
func FormatPercent(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64) + "%"
}

// FormatDate renders a German short date without zero padding, e.g. "5.9.2025".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2.1.2006")
}

// FormatThousands renders an axis tick in thousands, e.g. "23k".
func FormatThousands(v float64) string {
	return strconv.FormatInt(int64(math.Round(v/1000)), 10) + "k"
}
