package preprocess

// FunctionCall is a function-call reference found while walking the parse
// tree: its name, the raw source text of each positional/named argument
// (not yet evaluated — see EvalArg), and the character span in the
// original SQL so the Preprocessor can rewrite it.
type FunctionCall struct {
	Name          string
	PositionalRaw []string
	NamedRaw      map[string]string
	Start, End    int // byte offsets into the original SQL, End exclusive
}

// walkResult is everything §4.6 step 2 collects from one parse tree.
type walkResult struct {
	ReferencedTables map[string]bool
	FunctionCalls    []FunctionCall
}

// walkTree collects BASE_TABLE-equivalent range-var references and
// TABLE_FUNCTION-equivalent function calls from a pg_query_go parse tree,
// in the same map-walking style as the lineage resolver this module is
// modeled on: recurse through every map/slice, dispatching on the node-key
// that wraps each object (e.g. {"RangeVar": {...}}).
func walkTree(node any) walkResult {
	res := walkResult{ReferencedTables: make(map[string]bool)}
	var visit func(n any)
	visit = func(n any) {
		switch v := n.(type) {
		case map[string]any:
			if rv, ok := v["RangeVar"].(map[string]any); ok {
				if name, _ := rv["relname"].(string); name != "" {
					res.ReferencedTables[name] = true
				}
			}
			if fc, ok := v["FuncCall"].(map[string]any); ok {
				if call, ok := extractFuncCall(fc); ok {
					res.FunctionCalls = append(res.FunctionCalls, call)
				}
			}
			for _, child := range v {
				visit(child)
			}
		case []any:
			for _, child := range v {
				visit(child)
			}
		}
	}
	visit(node)
	return res
}

func extractFuncCall(fc map[string]any) (FunctionCall, bool) {
	namesAny, _ := fc["funcname"].([]any)
	if len(namesAny) == 0 {
		return FunctionCall{}, false
	}
	name := stringNodeValue(namesAny[len(namesAny)-1])
	if name == "" {
		return FunctionCall{}, false
	}

	call := FunctionCall{Name: name, NamedRaw: map[string]string{}}
	if loc, ok := fc["location"].(float64); ok {
		call.Start = int(loc)
	}
	return call, true
}

// stringNodeValue reads a {"String": {"sval": "x"}} (current libpg_query)
// or {"String": {"str": "x"}} (older) node shape.
func stringNodeValue(n any) string {
	m, ok := n.(map[string]any)
	if !ok {
		return ""
	}
	s, ok := m["String"].(map[string]any)
	if !ok {
		return ""
	}
	if v, ok := s["sval"].(string); ok {
		return v
	}
	if v, ok := s["str"].(string); ok {
		return v
	}
	return ""
}
