package translate

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
)

// Projection keeps only the listed dotted paths of a record.
type Projection struct {
	paths []jp.Expr
}

// NewProjection parses dotted field paths such as "error.Error".
// An empty list projects nothing away.
func NewProjection(fields []string) (Projection, error) {
	p := Projection{paths: make([]jp.Expr, 0, len(fields))}
	for _, f := range fields {
		x, err := jp.ParseString("$." + f)
		if err != nil {
			return Projection{}, fmt.Errorf("invalid field path %q: %w", f, err)
		}
		p.paths = append(p.paths, x)
	}
	return p, nil
}

// Apply projects a record. Paths missing from the record are omitted.
func (p Projection) Apply(r Record) Record {
	if len(p.paths) == 0 {
		return r
	}
	src := map[string]any(r)
	out := map[string]any{}
	for _, x := range p.paths {
		found := x.Get(src)
		if len(found) == 0 || found[0] == nil {
			continue
		}
		_ = x.Set(out, found[0])
	}
	return Record(out)
}

// ApplyAll projects every record in place.
func (p Projection) ApplyAll(records []Record) []Record {
	for i, r := range records {
		records[i] = p.Apply(r)
	}
	return records
}
