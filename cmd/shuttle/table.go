package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"shuttle/internal/device"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderDevices lists devices by index, marking the selected one.
func renderDevices(devices []device.Device, selected string) string {
	headers := []string{"#", "Device", "Size", "Model", "Mount point", "Partitions"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
	rows := make([][]string, 0, len(devices))
	for i, d := range devices {
		index := strconv.Itoa(i)
		if selected != "" && d.ID == selected {
			index = "*" + index
		}
		rows = append(rows, []string{index, d.ID, d.Size, d.Model, orDash(d.MountPoint), partitionSummary(d.Partitions)})
	}
	return renderTable(headers, rows, aligns)
}

func partitionSummary(parts []device.Partition) string {
	if len(parts) == 0 {
		return "-"
	}
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := p.ID
		if p.MountPoint != "" {
			name += " -> " + p.MountPoint
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}
