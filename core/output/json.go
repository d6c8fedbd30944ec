package output

import (
	"encoding/json"
	"io"

	"invoice-advisor/core/model"
	"invoice-advisor/core/types"
)

// JSONFormatter writes the same JSON documents the HTTP API returns
type JSONFormatter struct {
	Indent string
}

// Format implements Formatter
func (f *JSONFormatter) Format() Format { return FormatJSON }

// Recommendation implements Formatter
func (f *JSONFormatter) Recommendation(w io.Writer, rec *types.Recommendation) error {
	return f.encode(w, rec)
}

// Totals implements Formatter
func (f *JSONFormatter) Totals(w io.Writer, totals *types.Totals) error {
	return f.encode(w, totals)
}

// Models implements Formatter
func (f *JSONFormatter) Models(w io.Writer, models []model.Info) error {
	if models == nil {
		models = []model.Info{}
	}
	return f.encode(w, models)
}

func (f *JSONFormatter) encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	return enc.Encode(v)
}
