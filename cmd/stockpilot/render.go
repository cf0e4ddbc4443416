package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/JonMunkholm/stockpilot/internal/core"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderProducts(w io.Writer, products []core.Product) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Unit", "Category", "Brand", "Stock", "Status"})
	for _, p := range products {
		t.AppendRow(table.Row{p.ID, p.Name, p.Unit, p.Category, p.Brand, p.Stock, string(p.Status())})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(products), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.Render()
}

func renderHistory(w io.Writer, p core.Product, logs []core.InventoryLog) {
	fmt.Fprintf(w, "%s (id %d): %d in stock\n", p.Name, p.ID, p.Stock)
	if len(logs) == 0 {
		fmt.Fprintln(w, "no stock changes recorded")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Timestamp", "Old", "New", "Change", "Changed By"})
	for _, l := range logs {
		t.AppendRow(table.Row{
			l.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			l.OldStock,
			l.NewStock,
			fmt.Sprintf("%+d", l.NewStock-l.OldStock),
			l.ChangedBy,
		})
	}
	t.Render()
}

func renderImportResult(w io.Writer, r core.ImportResult) {
	fmt.Fprintf(w, "batch %s: added %d, skipped %d\n", r.BatchID, r.Added, r.Skipped)

	if len(r.Duplicates) > 0 {
		t := newTable(w)
		t.SetTitle("Duplicates")
		t.AppendHeader(table.Row{"Name", "Existing ID"})
		for _, d := range r.Duplicates {
			t.AppendRow(table.Row{d.Name, d.ExistingID})
		}
		t.Render()
	}

	if len(r.Rejected) > 0 {
		t := newTable(w)
		t.SetTitle("Rejected")
		t.AppendHeader(table.Row{"Row", "Name", "Reason"})
		for _, rej := range r.Rejected {
			t.AppendRow(table.Row{rej.Row, rej.Name, rej.Reason})
		}
		t.Render()
	}
}
