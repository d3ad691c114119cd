package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"

	"tagtrack/internal/preflight"
	"tagtrack/internal/store"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var statusKindStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

// statusKindForImport grades a batch status bucket. Empty buckets are
// informational whatever their status.
func statusKindForImport(status store.Status, count int) statusKind {
	if count == 0 {
		return statusInfo
	}
	switch status {
	case store.StatusFull:
		return statusOK
	case store.StatusPartial, store.StatusPending:
		return statusWarn
	case store.StatusError:
		return statusError
	}
	return statusInfo
}

func statusKindForCheck(check preflight.Result) statusKind {
	if check.Passed {
		return statusOK
	}
	return statusError
}

// statusPrinter accumulates report lines, colouring them for terminals.
type statusPrinter struct {
	colorize bool
	lines    []string
}

func (p *statusPrinter) section(title string) {
	if len(p.lines) > 0 {
		p.lines = append(p.lines, "")
	}
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(heading))
	if p.colorize {
		heading = ansiBlue + heading + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	p.lines = append(p.lines, heading, rule)
}

func (p *statusPrinter) line(label string, kind statusKind, message string) {
	style := statusKindStyles[kind]
	text := "[" + style.label + "]"
	if message != "" {
		text += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", text)
	if p.colorize && style.color != "" {
		line = style.color + line + ansiReset
	}
	p.lines = append(p.lines, line)
}

func (p *statusPrinter) String() string {
	return strings.Join(p.lines, "\n")
}

func renderStatusReport(w io.Writer, report statusReport, colorize bool) {
	p := &statusPrinter{colorize: colorize}

	p.section("Environment")
	if report.ConfigPath != "" {
		p.line("Config", statusInfo, report.ConfigPath)
	}
	p.line("Database file", statusInfo, report.DatabasePath)
	for _, check := range report.Checks {
		p.line(check.Name, statusKindForCheck(check), check.Detail)
	}

	p.section("Imports")
	renderImportCounts(p, report.Imports)
	p.line("Locations", statusInfo, formatCount(report.Locations))

	p.section("Counters")
	renderCounters(p, report.Counters, report.CounterError)

	fmt.Fprintln(w, p.String())
}

// renderImportCounts lists every status in lifecycle order followed by the
// total, so missing buckets still show as zero.
func renderImportCounts(p *statusPrinter, imports map[string]int) {
	total := 0
	for _, status := range store.AllStatuses() {
		count := imports[string(status)]
		total += count
		p.line(statusTitle(string(status)), statusKindForImport(status, count), formatCount(count))
	}
	p.line("Total", statusInfo, formatCount(total))
}

func renderCounters(p *statusPrinter, values map[string]int64, counterErr string) {
	if counterErr != "" {
		p.line("Counters", statusError, counterErr)
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	printer := newPrinter()
	for _, name := range names {
		p.line(name, statusInfo, printer.Sprintf("%d", values[name]))
	}
	if len(names) == 0 && counterErr == "" {
		p.line("Counters", statusInfo, "none recorded")
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
