package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/delaneyj/reactnotify/pkg/graphspec"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

func printTrace(w io.Writer, trace *graphspec.Trace) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"step", "session", "property", "value"})
	for _, e := range trace.Events {
		table.Append([]string{
			strconv.Itoa(e.Step),
			strconv.FormatUint(uint64(e.Session), 10),
			e.Property,
			fmt.Sprint(e.Value),
		})
	}
	table.SetFooter([]string{
		"",
		humanize.Comma(int64(trace.Sessions())) + " sessions",
		humanize.Comma(int64(len(trace.Events))) + " notifications",
		"",
	})
	table.Render()
}
