package cli

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/hyperjump/grantseek/internal/models"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders an award range such as "$50,000 - $500,000". With only a ceiling
// it renders "Up to $X". Anything unparseable is "Amount not specified".
func FormatAmount(amountMin, amountMax string) string {
	amountMin, amountMax = strings.TrimSpace(amountMin), strings.TrimSpace(amountMax)
	switch {
	case models.IsAvailable(amountMin) && models.IsAvailable(amountMax):
		lo, errLo := strconv.ParseFloat(amountMin, 64)
		hi, errHi := strconv.ParseFloat(amountMax, 64)
		if errLo == nil && errHi == nil {
			return amountPrinter.Sprintf("$%.0f - $%.0f", lo, hi)
		}
	case models.IsAvailable(amountMax):
		if hi, err := strconv.ParseFloat(amountMax, 64); err == nil {
			return amountPrinter.Sprintf("Up to $%.0f", hi)
		}
	}
	return "Amount not specified"
}

// FormatDate returns the date part of an ISO timestamp, or "No deadline specified".
func FormatDate(date string) string {
	date = strings.TrimSpace(date)
	if !models.IsAvailable(date) {
		return "No deadline specified"
	}
	if day, _, ok := strings.Cut(date, "T"); ok {
		return day
	}
	return date
}
