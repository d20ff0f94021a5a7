package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/tidwall/gjson"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// outputMode selects how a payload is printed.
type outputMode int

const (
	outputTable outputMode = iota
	outputJSON
	outputRaw
)

// printPayload writes a result object. query, when set, selects one value
// with gjson path syntax and prints it bare.
func printPayload(w io.Writer, payload []byte, mode outputMode, query string) error {
	if !gjson.ValidBytes(payload) {
		return fmt.Errorf("invalid JSON payload: %q", payload)
	}

	if query != "" {
		res := gjson.GetBytes(payload, query)
		if !res.Exists() {
			return fmt.Errorf("query %q matched nothing", query)
		}
		if res.Type == gjson.JSON {
			_, err := fmt.Fprintln(w, res.Raw)
			return err
		}
		_, err := fmt.Fprintln(w, res.String())
		return err
	}

	switch mode {
	case outputRaw:
		_, err := fmt.Fprintln(w, string(payload))
		return err
	case outputJSON:
		var buf bytes.Buffer
		if err := json.Indent(&buf, payload, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err := w.Write(buf.Bytes())
		return err
	default:
		printTable(w, payload)
		return nil
	}
}

// printTable prints the top-level fields of an object, sorted by key.
func printTable(w io.Writer, payload []byte) {
	type field struct {
		key   string
		value gjson.Result
	}
	var fields []field
	width := 0
	gjson.ParseBytes(payload).ForEach(func(key, value gjson.Result) bool {
		fields = append(fields, field{key.String(), value})
		if len(key.String()) > width {
			width = len(key.String())
		}
		return true
	})
	sort.Slice(fields, func(i, j int) bool { return fields[i].key < fields[j].key })

	for _, f := range fields {
		fmt.Fprintf(w, "  %s  %s\n", cyan(fmt.Sprintf("%-*s", width, f.key)), formatValue(f.value))
	}
}

// formatValue colors booleans and marks the -1 and "unknown" sentinels.
func formatValue(v gjson.Result) string {
	switch v.Type {
	case gjson.True:
		return green("true")
	case gjson.False:
		return yellow("false")
	case gjson.Number:
		if v.Num == -1 {
			return dim(v.Raw + " (unknown)")
		}
		return v.Raw
	case gjson.String:
		if v.Str == "unknown" || v.Str == "none" {
			return dim(v.Str)
		}
		return v.Str
	default:
		return v.Raw
	}
}
