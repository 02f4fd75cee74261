package expr

import "github.com/roach88/tripir/internal/value"

// GlobalKey is the reserved key under which serialized contexts carry the
// aggregate record list.
const GlobalKey = "global"

// Context is the environment an expression is evaluated against.
//
// Fields backs Field lookups. Records is the list Aggregate nodes reduce
// over (candidate restaurants for a day, hotels in a city). Keeping Records
// separate means a user field named "global" never shadows it.
type Context struct {
	Fields  value.Record
	Records []value.Record
}

// NewContext creates a Context from field bindings and aggregate records.
func NewContext(fields value.Record, records ...value.Record) Context {
	return Context{Fields: fields, Records: records}
}

// ContextFromRecord builds a Context from a plain mapping that follows the
// wire contract: a "global" key bound to a list of records becomes the
// aggregate record list. The key stays readable as an ordinary field.
// List items that are not records are skipped.
func ContextFromRecord(r value.Record) Context {
	ctx := Context{Fields: r}
	if list, ok := r[GlobalKey].(value.List); ok {
		ctx.Records = make([]value.Record, 0, len(list))
		for _, item := range list {
			if rec, ok := item.(value.Record); ok {
				ctx.Records = append(ctx.Records, rec)
			}
		}
	}
	return ctx
}

// Lookup returns the named field, or value.Null when absent.
func (c Context) Lookup(name string) value.Value {
	return c.Fields.Get(name)
}

// Record returns the wire form of the Context: its fields plus a "global"
// list when Records is non-empty. A "global" field already present in
// Fields is overwritten by Records.
func (c Context) Record() value.Record {
	out := make(value.Record, len(c.Fields)+1)
	for k, v := range c.Fields {
		out[k] = v
	}
	if len(c.Records) > 0 {
		list := make(value.List, len(c.Records))
		for i, r := range c.Records {
			list[i] = r
		}
		out[GlobalKey] = list
	}
	return out
}
