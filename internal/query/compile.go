package query

import (
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"

	"github.com/kailas-cloud/metasearch/internal/domain"
	"github.com/kailas-cloud/metasearch/internal/domain/search/fieldmap"
	"github.com/kailas-cloud/metasearch/internal/domain/search/filter"
	"github.com/kailas-cloud/metasearch/internal/domain/search/params"
)

// CountColumn is the output alias of count queries.
const CountColumn = "count"

// Paired collection identity keys.
const (
	keyCollectionName    = "collectionName"
	keyCollectionVersion = "collectionVersion"
	keyUpdatedAt         = "updatedAt"
)

// Plan is a compiled search. Builders use ? placeholders; executors lower them.
type Plan struct {
	Entity  domain.Entity
	Table   string
	Count   sq.SelectBuilder
	Records sq.SelectBuilder
	// CountOnly skips the records query.
	CountOnly bool
	// Estimate allows a table-statistics estimate instead of COUNT(*).
	Estimate bool
	Limit    int
	Page     int
	Offset   int
}

// Compile builds the count and records queries for a parameter set.
// Both queries share one WITH clause and the same inner joins.
func Compile(spec Spec, p params.Parameters) (Plan, error) {
	c := compiler{spec: spec, p: p}
	preds, err := c.predicates()
	if err != nil {
		return Plan{}, err
	}
	return c.plan(preds)
}

type compiler struct {
	spec Spec
	p    params.Parameters
}

// predicates groups filters by the table they restrict.
type predicates struct {
	primary   []sq.Sqlizer
	relations map[string][]sq.Sqlizer
	// granules and granuleProviders feed the collections EXISTS subquery.
	granules         []sq.Sqlizer
	granuleProviders []sq.Sqlizer
}

func (ps *predicates) add(t fieldmap.Target, pred sq.Sqlizer) {
	switch {
	case t.IsPrimary():
		ps.primary = append(ps.primary, pred)
	case t.Relation == fieldmap.RelGranules:
		ps.granuleProviders = append(ps.granuleProviders, pred)
	default:
		ps.relations[t.Relation] = append(ps.relations[t.Relation], pred)
	}
}

func (c compiler) target(key string) (fieldmap.Target, error) {
	t, ok := c.spec.Mapping.Target(key)
	if !ok {
		return t, domain.NewFieldError(key, domain.ErrUnsupportedFilterField)
	}
	switch {
	case t.IsPrimary():
	case t.Relation == fieldmap.RelGranules:
		if c.spec.Granules == nil {
			return t, domain.NewFieldError(key, domain.ErrUnsupportedFilterField)
		}
	default:
		if _, ok := c.spec.Relation(t.Relation); !ok {
			return t, domain.NewFieldError(key, domain.ErrUnsupportedFilterField)
		}
	}
	return t, nil
}

// ref renders the SQL expression of a target.
func (c compiler) ref(t fieldmap.Target) string {
	owner := c.spec.Table
	switch {
	case t.Relation == fieldmap.RelGranules:
		owner = "providers"
	case !t.IsPrimary():
		owner = t.Relation
	}
	if t.JSONKey != "" {
		return jsonText(owner, t.Column, t.JSONKey)
	}
	return col(owner, t.Column)
}

func (c compiler) textExpr() string {
	e := col(c.spec.Table, c.spec.TextColumn)
	if c.spec.TextCast {
		e = "CAST(" + e + " AS TEXT)"
	}
	return e
}

// activeRange reports whether a range key applies to granules instead of collections.
func (c compiler) activeRange(key string) bool {
	return c.spec.Granules != nil && c.p.Active() && key == keyUpdatedAt
}

func (c compiler) predicates() (predicates, error) {
	ps := predicates{relations: map[string][]sq.Sqlizer{}}

	terms := c.p.Terms()
	names, pairedTerms := terms[keyCollectionName]
	versions, hasVersions := terms[keyCollectionVersion]
	pairedTerms = pairedTerms && hasVersions
	if pairedTerms && len(names) != len(versions) {
		return ps, fmt.Errorf("%w: %d collection names and %d versions",
			domain.ErrMalformedPairedFilter, len(names), len(versions))
	}
	notf := c.p.Not()
	_, pairedNot := notf[keyCollectionName]
	_, hasNotVersion := notf[keyCollectionVersion]
	pairedNot = pairedNot && hasNotVersion

	for _, f := range c.p.Filters() {
		switch f := f.(type) {
		case filter.Term:
			t, err := c.target(f.Key())
			if err != nil {
				return ps, err
			}
			ps.add(t, sq.Eq{c.ref(t): f.Value()})

		case filter.Terms:
			if pairedTerms && isCollectionPart(f.Key()) {
				if f.Key() == keyCollectionName {
					if err := c.addPairs(&ps, names, versions); err != nil {
						return ps, err
					}
				}
				continue
			}
			t, err := c.target(f.Key())
			if err != nil {
				return ps, err
			}
			ps.add(t, sq.Eq{c.ref(t): f.Values()})

		case filter.Not:
			if pairedNot && isCollectionPart(f.Key()) {
				if f.Key() == keyCollectionName {
					if err := c.addNotPair(&ps, notf[keyCollectionName], notf[keyCollectionVersion]); err != nil {
						return ps, err
					}
				}
				continue
			}
			t, err := c.target(f.Key())
			if err != nil {
				return ps, err
			}
			ps.add(t, not{sq.Eq{c.ref(t): f.Value()}})

		case filter.Exists:
			t, err := c.target(f.Key())
			if err != nil {
				return ps, err
			}
			ps.primary = append(ps.primary, c.existsPredicate(t, f.Exists()))

		case filter.Range:
			if err := c.addRange(&ps, f); err != nil {
				return ps, err
			}

		case filter.Infix:
			ps.primary = append(ps.primary, like(c.textExpr(), "%", f.Value(), "%"))

		case filter.Prefix:
			ps.primary = append(ps.primary, like(c.textExpr(), "", f.Value(), "%"))

		default:
			return ps, fmt.Errorf("compile %s filter: unsupported filter kind", f.Kind())
		}
	}

	if c.spec.Granules != nil && (c.p.Active() || len(ps.granules) > 0 || len(ps.granuleProviders) > 0) {
		ps.primary = append(ps.primary, exists{sub: c.granuleSubquery(ps)})
	}
	return ps, nil
}

func isCollectionPart(key string) bool {
	return key == keyCollectionName || key == keyCollectionVersion
}

// addPairs matches any of the (name, version) pairs: ((n = ? AND v = ?) OR ...).
func (c compiler) addPairs(ps *predicates, names, versions []any) error {
	nt, err := c.target(keyCollectionName)
	if err != nil {
		return err
	}
	vt, err := c.target(keyCollectionVersion)
	if err != nil {
		return err
	}
	pairs := sq.Or{}
	for i := range names {
		pairs = append(pairs, sq.And{sq.Eq{c.ref(nt): names[i]}, sq.Eq{c.ref(vt): versions[i]}})
	}
	ps.add(nt, pairs)
	return nil
}

// addNotPair excludes one collection: NOT (n = ? AND v = ?).
func (c compiler) addNotPair(ps *predicates, name, version any) error {
	nt, err := c.target(keyCollectionName)
	if err != nil {
		return err
	}
	vt, err := c.target(keyCollectionVersion)
	if err != nil {
		return err
	}
	ps.add(nt, not{sq.And{sq.Eq{c.ref(nt): name}, sq.Eq{c.ref(vt): version}}})
	return nil
}

func (c compiler) addRange(ps *predicates, r filter.Range) error {
	t, err := c.target(r.Key())
	if err != nil {
		return err
	}
	active := c.activeRange(r.Key())
	ref := c.ref(t)
	if active {
		ref = col(c.spec.Granules.Table, t.Column)
	}
	var bounds []sq.Sqlizer
	if v := r.GTE(); v != nil {
		bounds = append(bounds, sq.GtOrEq{ref: v})
	}
	if v := r.LTE(); v != nil {
		bounds = append(bounds, sq.LtOrEq{ref: v})
	}
	if active {
		ps.granules = append(ps.granules, bounds...)
		return nil
	}
	for _, b := range bounds {
		ps.add(t, b)
	}
	return nil
}

// existsPredicate checks presence without joining: relation fields test the foreign key.
func (c compiler) existsPredicate(t fieldmap.Target, present bool) sq.Sqlizer {
	if t.Relation == fieldmap.RelGranules {
		g := c.spec.Granules
		sub := sq.Select("1").From(g.Table).
			Where(col(g.Table, g.ForeignKey) + " = " + col(c.spec.Table, "cumulus_id")).
			Where(col(g.Table, g.ProviderForeignKey) + " IS NOT NULL")
		return exists{sub: sub, negate: !present}
	}
	ref := c.ref(t)
	if !t.IsPrimary() {
		r, _ := c.spec.Relation(t.Relation)
		ref = col(c.spec.Table, r.ForeignKey)
	}
	if present {
		return sq.NotEq{ref: nil}
	}
	return sq.Eq{ref: nil}
}

// granuleSubquery correlates granules to the enclosing collections row.
func (c compiler) granuleSubquery(ps predicates) sq.SelectBuilder {
	g := c.spec.Granules
	sub := sq.Select("1").From(g.Table).
		Where(col(g.Table, g.ForeignKey) + " = " + col(c.spec.Table, "cumulus_id"))
	for _, pr := range ps.granules {
		sub = sub.Where(pr)
	}
	if len(ps.granuleProviders) > 0 {
		providers := sq.Select(col("providers", "cumulus_id")).From("providers")
		for _, pr := range ps.granuleProviders {
			providers = providers.Where(pr)
		}
		sub = sub.Where(in{expr: col(g.Table, g.ProviderForeignKey), sub: providers})
	}
	return sub
}

func fromAs(table, alias string) string {
	if table == alias {
		return table
	}
	return table + " AS " + alias
}

func (c compiler) joinOn(r Relation, source string) string {
	return fromAs(source, r.Name) + " ON " + col(r.Name, "cumulus_id") + " = " + col(c.spec.Table, r.ForeignKey)
}

func (c compiler) plan(ps predicates) (Plan, error) {
	table := c.spec.Table
	p := c.p

	primary := sq.Select(table + ".*").From(table)
	for _, pr := range ps.primary {
		primary = primary.Where(pr)
	}
	ctes := with{{name: table + "_cte", query: primary}}

	var filtered []Relation
	for _, r := range c.spec.Relations {
		preds := ps.relations[r.Name]
		if len(preds) == 0 {
			continue
		}
		cols := []string{col(r.Name, "cumulus_id")}
		for _, d := range r.Decorate {
			cols = append(cols, col(r.Name, d.Name))
		}
		q := sq.Select(cols...).From(fromAs(r.Table, r.Name))
		for _, pr := range preds {
			q = q.Where(pr)
		}
		ctes = append(ctes, cte{name: r.Name + "_cte", query: q})
		filtered = append(filtered, r)
	}

	from := table + "_cte AS " + table
	count := sq.Select("COUNT(*) AS " + quote(CountColumn)).PrefixExpr(ctes).From(from)
	records := sq.Select(table + ".*").PrefixExpr(ctes).From(from)
	for _, r := range filtered {
		on := c.joinOn(r, r.Name+"_cte")
		count = count.InnerJoin(on)
		records = records.InnerJoin(on)
	}

	sorts := p.Sort()
	if len(sorts) == 0 {
		sorts = c.spec.DefaultSort
	}
	sortRelations := map[string]bool{}
	var orderBys []string
	for _, s := range sorts {
		t, err := c.target(s.Key)
		if err != nil {
			return Plan{}, err
		}
		if t.Relation == fieldmap.RelGranules {
			return Plan{}, domain.NewFieldError(s.Key,
				fmt.Errorf("%w: cannot sort by a granule field", domain.ErrInvalidParameter))
		}
		if !t.IsPrimary() {
			sortRelations[t.Relation] = true
		}
		orderBys = append(orderBys, orderBy(c.ref(t), direction(s.Order)))
	}
	tiebreak := params.Desc
	if len(sorts) > 0 {
		tiebreak = sorts[0].Order
	}
	orderBys = append(orderBys, orderBy(col(table, "cumulus_id"), direction(tiebreak)))

	for _, r := range c.spec.Relations {
		isFiltered := slices.ContainsFunc(filtered, func(f Relation) bool { return f.Name == r.Name })
		decorate := r.Always || (r.FullRecord && p.IncludeFullRecord())
		if !isFiltered && (decorate || sortRelations[r.Name]) {
			records = records.LeftJoin(c.joinOn(r, r.Table))
		}
		if decorate {
			for _, d := range r.Decorate {
				records = records.Column(col(r.Name, d.Name) + " AS " + quote(d.Alias))
			}
		}
	}

	records = records.OrderBy(orderBys...).
		Limit(uint64(p.Limit())).
		Offset(uint64(p.Offset()))

	estimate, set := p.EstimateTableRowCount()
	if !set {
		estimate = c.spec.EstimateByDefault
	}

	return Plan{
		Entity:    c.spec.Entity,
		Table:     table,
		Count:     count,
		Records:   records,
		CountOnly: p.CountOnly(),
		Estimate:  estimate && !p.HasFilters(),
		Limit:     p.Limit(),
		Page:      p.Page(),
		Offset:    p.Offset(),
	}, nil
}

func direction(o params.Order) string {
	if o == params.Desc {
		return "DESC"
	}
	return "ASC"
}
