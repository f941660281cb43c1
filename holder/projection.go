package holder

import "github.com/apache/arrow-go/v18/arrow"

// ProjectSchema returns the subschema of schema containing only proj's
// columns, in the order requested. proj.All returns schema itself; an
// empty Names list with All unset (the schema-probe case) returns a schema
// with no fields. Names absent from schema are skipped. Original schema
// metadata is preserved.
//
// Adapted from the catalog package's column-projection helper in the
// example this module was modeled on.
func ProjectSchema(schema *arrow.Schema, proj Projection) *arrow.Schema {
	if proj.All {
		return schema
	}
	if len(proj.Names) == 0 {
		meta := schema.Metadata()
		return arrow.NewSchema(nil, &meta)
	}

	colIndex := make(map[string]int, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		colIndex[schema.Field(i).Name] = i
	}

	fields := make([]arrow.Field, 0, len(proj.Names))
	for _, name := range proj.Names {
		if idx, ok := colIndex[name]; ok {
			fields = append(fields, schema.Field(idx))
		}
	}

	meta := schema.Metadata()
	return arrow.NewSchema(fields, &meta)
}
