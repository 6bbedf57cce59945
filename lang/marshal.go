package lang

import "encoding/json"

// MarshalJSON implements json.Marshaler for Program.
func (n *Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToMap(n))
}

// ToMap converts an AST node to a native Go map structure. Each map has a
// "type" key naming the node shape.
func ToMap(n Node) map[string]any {
	switch n := n.(type) {
	case *Number:
		return map[string]any{
			"type":  "number",
			"value": NumberValue(n.Value),
		}

	case *Variable:
		return map[string]any{
			"type": "variable",
			"name": n.Name,
		}

	case *Binary:
		return map[string]any{
			"type":  "binary",
			"op":    string(n.Op),
			"left":  ToMap(n.Left),
			"right": ToMap(n.Right),
		}

	case *Assign:
		return map[string]any{
			"type":   "assign",
			"target": ToMap(n.Target),
			"value":  ToMap(n.Value),
		}

	case *Call:
		return map[string]any{
			"type": "call",
			"name": n.Name,
			"args": toList(n.Args),
		}

	case *FuncDef:
		params := n.Params
		if params == nil {
			params = []string{}
		}

		return map[string]any{
			"type":   "def",
			"name":   n.Name,
			"params": params,
			"body":   ToMap(n.Body),
		}

	case *If:
		m := map[string]any{
			"type": "if",
			"cond": ToMap(n.Cond),
			"then": ToMap(n.Then),
		}

		if n.Else != nil {
			m["else"] = ToMap(n.Else)
		}

		return m

	case *While:
		return map[string]any{
			"type": "while",
			"cond": ToMap(n.Cond),
			"body": ToMap(n.Body),
		}

	case *Program:
		if n == nil {
			return map[string]any{"type": "program", "statements": []any{}}
		}

		return map[string]any{
			"type":       "program",
			"statements": toList(n.Stmts),
		}
	}

	return nil
}

func toList(nodes []Node) []any {
	list := make([]any, len(nodes))
	for i, n := range nodes {
		list[i] = ToMap(n)
	}

	return list
}
