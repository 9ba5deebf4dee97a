// Copyright (c) 2026 ToeiRei
// Tabula - a terminal data table for remote JSON APIs
// This source code is licensed under the MIT license found in the LICENSE file.

// package pipeline preprocesses fetched records before they reach the
// table: computed columns are expanded from templates and per-column
// formats turn raw JSON values into display text. Hooks run in order; a
// failing hook marks the record instead of aborting the page.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/toeirei/tabula/internal/model"
)

// ErrorField is set on a record when one of its preprocessors failed. The
// TUI renders marked rows with the error style instead of dropping them.
const ErrorField = "_error"

// Preprocessor transforms a record in place before display.
type Preprocessor func(model.Record) error

// Pipeline applies an ordered list of preprocessors to fetched pages.
type Pipeline struct {
	pre []Preprocessor
}

// New builds a pipeline for the given columns. Every column with a
// template contributes a computed-field preprocessor.
func New(columns []model.Column) *Pipeline {
	p := &Pipeline{}
	for _, col := range columns {
		if col.Template == "" {
			continue
		}
		p.Use(Computed(col.Key, col.Template))
	}
	return p
}

// Use appends preprocessors, run in the order given.
func (p *Pipeline) Use(pre ...Preprocessor) {
	p.pre = append(p.pre, pre...)
}

// Apply runs the pipeline over a page of records. Records are shallow
// copied so sources that hand out shared slices (local mode, snapshots)
// never see computed fields leak back into their data.
func (p *Pipeline) Apply(records []model.Record) []model.Record {
	if len(p.pre) == 0 {
		return records
	}
	out := make([]model.Record, len(records))
	for i, r := range records {
		c := make(model.Record, len(r)+1)
		for k, v := range r {
			c[k] = v
		}
		for _, pre := range p.pre {
			if err := pre(c); err != nil {
				c[ErrorField] = err.Error()
				break
			}
		}
		out[i] = c
	}
	return out
}

// Computed stores the expansion of template under the given field. The
// template references record fields in braces, e.g. "{firstName} {lastName}".
func Computed(field, template string) Preprocessor {
	return func(r model.Record) error {
		v, err := Expand(template, r)
		if err != nil {
			return err
		}
		r[field] = v
		return nil
	}
}

// Expand replaces {path} placeholders in template with the record's field
// values. Referencing a field the record does not have is an error so
// profile typos surface instead of silently rendering blanks.
func Expand(template string, r model.Record) (string, error) {
	var b strings.Builder
	rest := template
	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			b.WriteString(rest)
			return b.String(), nil
		}
		b.WriteString(rest[:start])
		path := rest[start+1 : start+end]
		if _, ok := r.Field(path); !ok {
			return "", fmt.Errorf("template references unknown field %q", path)
		}
		b.WriteString(r.FieldString(path))
		rest = rest[start+end+1:]
	}
}

// FormatCell renders one record field as display text for the column.
func FormatCell(r model.Record, col model.Column) string {
	s := r.FieldString(col.Key)
	switch col.Format {
	case model.FormatDate:
		// ISO timestamps truncate to the second; "T" reads poorly in a cell.
		if len(s) > 19 {
			s = s[:19]
		}
		return strings.Replace(s, "T", " ", 1)
	case model.FormatBadge, model.FormatNumber, model.FormatURL, model.FormatText:
		return s
	default:
		return s
	}
}
