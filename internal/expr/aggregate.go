package expr

import "github.com/roach88/tripir/internal/value"

// evalAggregate filters the context's records, then reduces them.
func evalAggregate(n Aggregate, ctx Context) (value.Value, error) {
	kept, err := filterRecords(n.Filter, ctx.Records)
	if err != nil {
		return nil, err
	}

	switch n.Func {
	case FuncSum:
		return sumField(kept, n.Field), nil
	case FuncCount:
		return value.Number(len(kept)), nil
	case FuncMin:
		return extremes(kept, n.Field, n.ReturnField, -1), nil
	case FuncMax:
		return extremes(kept, n.Field, n.ReturnField, 1), nil
	default:
		return nil, NewUnknownAggregateFunc(n.Func)
	}
}

// filterRecords keeps the records for which filter is truthy. Each record is
// the whole context of the nested evaluation, so field lookups inside the
// filter resolve against the record's own fields.
func filterRecords(filter Expr, records []value.Record) ([]value.Record, error) {
	if Deref(filter) == nil {
		return records, nil
	}

	kept := make([]value.Record, 0, len(records))
	for _, r := range records {
		ok, err := EvalBool(filter, ContextFromRecord(r))
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// sumField totals the numeric values of field. Missing or non-numeric
// values contribute nothing; an empty set sums to 0.
func sumField(records []value.Record, field string) value.Value {
	var total float64
	for _, r := range records {
		if n, ok := value.AsNumber(r.Get(field)); ok {
			total += n
		}
	}
	return value.Number(total)
}

// extremes returns every record whose field value is extremal (dir -1 for
// min, 1 for max), projected through returnField. Ties are all kept, in
// input order. An empty returnField projects like "*". Records whose value
// is missing or not comparable with the current best are skipped.
func extremes(records []value.Record, field, returnField string, dir int) value.Value {
	var best value.Value
	var winners []value.Record

	for _, r := range records {
		v := r.Get(field)
		if _, isNull := v.(value.Null); isNull {
			continue
		}
		if best == nil {
			if _, ok := value.Compare(v, v); !ok {
				continue
			}
			best = v
			winners = []value.Record{r}
			continue
		}

		c, ok := value.Compare(v, best)
		if !ok {
			continue
		}
		switch {
		case c*dir > 0:
			best = v
			winners = []value.Record{r}
		case c == 0:
			winners = append(winners, r)
		}
	}

	out := make(value.List, 0, len(winners))
	for _, r := range winners {
		if returnField == ProjectAll || returnField == "" {
			out = append(out, r)
		} else {
			out = append(out, r.Get(returnField))
		}
	}
	return out
}
