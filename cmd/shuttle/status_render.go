package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"shuttle/internal/device"
	"shuttle/internal/preflight"
	"shuttle/internal/session"
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

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func statusLines(st session.Status, colorize bool) []string {
	lines := renderSectionHeader("Host", colorize)
	lines = append(lines, renderStatusLine("Platform", statusInfo, st.Platform, colorize))
	if st.Elevated {
		lines = append(lines, renderStatusLine("Privileges", statusOK, "elevated", colorize))
	} else {
		lines = append(lines, renderStatusLine("Privileges", statusWarn, "not elevated", colorize))
	}
	lines = append(lines, renderStatusLine("Detection", statusInfo, strings.Join(st.Strategies, " -> "), colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Devices", colorize)...)
	lines = append(lines, renderStatusLine("Detected", statusInfo, fmt.Sprintf("%d", len(st.Devices)), colorize))
	if st.Selected != nil {
		lines = append(lines, renderStatusLine("Selected", statusOK,
			fmt.Sprintf("%s (%s, %s)", st.Selected.ID, st.Selected.Model, st.Selected.Size), colorize))
	} else {
		lines = append(lines, renderStatusLine("Selected", statusInfo, "none", colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Mount", colorize)...)
	switch {
	case st.ActiveMountPoint == "":
		lines = append(lines, renderStatusLine("Active", statusInfo, "nothing mounted", colorize))
	case st.Live != nil && !*st.Live:
		lines = append(lines, renderStatusLine("Active", statusWarn,
			st.ActiveMountPoint+" (no longer mounted; run shuttle cleanup)", colorize))
	default:
		lines = append(lines, renderStatusLine("Active", statusOK,
			fmt.Sprintf("%s on %s", orDash(st.ActiveDevice), st.ActiveMountPoint), colorize))
	}
	if st.Usage != nil {
		lines = append(lines, renderStatusLine("Space", statusInfo, fmt.Sprintf("%s free of %s (%.0f%% used)",
			device.FormatSize(st.Usage.Free), device.FormatSize(st.Usage.Total), st.Usage.UsedPercent), colorize))
	}
	if st.ActiveMountPoint != "" {
		kind := statusWarn
		if st.WalletPresent {
			kind = statusOK
		}
		lines = append(lines, renderStatusLine("Wallet", kind, yesNo(st.WalletPresent), colorize))
	}
	lines = append(lines, renderStatusLine("Open sessions", statusInfo, fmt.Sprintf("%d", st.OpenSessions), colorize))
	lines = append(lines, renderStatusLine("Journal", statusInfo, st.JournalPath, colorize))
	return lines
}

// doctorLines renders preflight results followed by a summary. Failed
// optional checks are warnings.
func doctorLines(results []preflight.Result, colorize bool) ([]string, bool) {
	lines := renderSectionHeader("Readiness", colorize)
	ready := true
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			if r.Optional {
				kind = statusWarn
			} else {
				kind = statusError
				ready = false
			}
		}
		lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
	}
	if ready {
		lines = append(lines, renderStatusLine("Summary", statusOK, "ready", colorize))
	} else {
		lines = append(lines, renderStatusLine("Summary", statusError, "required checks failed", colorize))
	}
	return lines, ready
}
