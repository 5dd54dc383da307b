package main

import (
	"io"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ozgurerrdem/persona-watch/internal/domain"
	"github.com/ozgurerrdem/persona-watch/internal/normalize"
	"github.com/ozgurerrdem/persona-watch/internal/source"
)

const titleWidth = 60

func renderAdapters(w io.Writer, adapters []source.Adapter) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Platform"})
	for _, a := range adapters {
		t.AppendRow(table.Row{a.Name(), a.Platform()})
	}
	t.AppendFooter(table.Row{"Total", len(adapters)})
	t.Render()
}

func renderOutcome(w io.Writer, outcome *domain.ScanOutcome) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("%s: %d new records", outcome.State, len(outcome.NewRecords))
	t.AppendHeader(table.Row{"Published", "Platform", "Publisher", "Title", "Likes", "Views", "URL"})
	for _, r := range outcome.NewRecords {
		t.AppendRow(table.Row{
			r.PublishedAt.Format(time.DateTime),
			r.Platform,
			r.Publisher,
			normalize.Truncate(r.Title, titleWidth),
			r.Likes,
			r.Views,
			r.URL,
		})
	}
	t.Render()

	if len(outcome.Errors) == 0 {
		return
	}

	names := make([]string, 0, len(outcome.Errors))
	for name := range outcome.Errors {
		names = append(names, name)
	}
	sort.Strings(names)

	et := table.NewWriter()
	et.SetOutputMirror(w)
	et.SetStyle(table.StyleLight)
	et.SetTitle("Adapter errors")
	et.AppendHeader(table.Row{"Adapter", "Error"})
	for _, name := range names {
		et.AppendRow(table.Row{name, outcome.Errors[name]})
	}
	et.Render()
}
