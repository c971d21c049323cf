package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"

	"gopkg.in/yaml.v3"
)

// JSONFormatter writes the result (or its Data payload) as indented JSON.
type JSONFormatter struct{}

// Format writes the formatted result to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.payload())
}

// YAMLFormatter writes the result (or its Data payload) as YAML.
type YAMLFormatter struct{}

// Format writes the formatted result to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.payload()); err != nil {
		return err
	}
	return enc.Close()
}

// ErrNoTable is returned by CSVFormatter for results without a table.
var ErrNoTable = errors.New("csv output needs a tabular result")

// CSVFormatter writes the result's table as RFC 4180 CSV.
type CSVFormatter struct{}

// Format writes the formatted result to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r.Table == nil {
		return ErrNoTable
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Table.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(r.Table.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func init() {
	Register("json", func() Formatter { return &JSONFormatter{} })
	Register("yaml", func() Formatter { return &YAMLFormatter{} })
	Register("csv", func() Formatter { return &CSVFormatter{} })
}

var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*YAMLFormatter)(nil)
	_ Formatter = (*CSVFormatter)(nil)
)
