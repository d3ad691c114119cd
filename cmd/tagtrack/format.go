package main

import (
	"strconv"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var titleCaser = cases.Title(language.English)

// newPrinter formats counts with locale digit grouping.
func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

func formatCount(n int) string {
	return newPrinter().Sprintf("%d", n)
}

func statusTitle(status string) string {
	if status == "" {
		return "-"
	}
	return titleCaser.String(status)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatCoordinate(value float64) string {
	return strconv.FormatFloat(value, 'f', 6, 64)
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
