package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"gamesheet/internal/reconcile"
	"gamesheet/internal/runstate"
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
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func renderSummaryTable(summary *reconcile.Summary) string {
	headers := []string{"Processed", "Matched", "Ambiguous", "Not Found", "Failed", "Skipped"}
	rows := [][]string{{
		strconv.Itoa(summary.Processed),
		strconv.Itoa(summary.Matched),
		strconv.Itoa(summary.Ambiguous),
		strconv.Itoa(summary.NotFound),
		strconv.Itoa(summary.Failed),
		strconv.Itoa(summary.Skipped),
	}}
	aligns := []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	return renderTable(headers, rows, aligns)
}

func renderStatusTable(rows []runstate.Row, headerRows int) string {
	headers := []string{"Row", "Title", "Status", "Detail"}
	body := make([][]string, 0, len(rows))
	for _, row := range rows {
		body = append(body, []string{
			strconv.FormatInt(row.RowIndex+int64(headerRows)+1, 10),
			row.Title,
			string(row.Status),
			truncate(row.Detail, 60),
		})
	}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}
	return renderTable(headers, body, aligns)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
