package substitute

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

var errNoKeys = errors.New("directive literal has no keys")

// directive is the parsed form of a "name: literal" marker expression.
type directive struct {
	name string
	arg  any
}

// parseDirective reads expr as the body of an object literal. Only literal
// syntax is accepted: the expr-lang parser builds the tree and the walk
// below rejects anything that would need evaluating.
func parseDirective(expr string) (directive, error) {
	tree, err := parser.Parse("{" + quoteName(expr) + "}")
	if err != nil {
		return directive{}, err
	}

	obj, ok := tree.Node.(*ast.MapNode)
	if !ok {
		return directive{}, fmt.Errorf("not an object literal: %T", tree.Node)
	}
	if len(obj.Pairs) == 0 {
		return directive{}, errNoKeys
	}

	var first directive
	for i, node := range obj.Pairs {
		pair, ok := node.(*ast.PairNode)
		if !ok {
			return directive{}, fmt.Errorf("unexpected object member %T", node)
		}
		key, err := literalKey(pair.Key)
		if err != nil {
			return directive{}, err
		}
		value, err := literalValue(pair.Value)
		if err != nil {
			return directive{}, fmt.Errorf("key %q: %w", key, err)
		}
		if i == 0 {
			first = directive{name: key, arg: value}
		}
	}

	return first, nil
}

var bareName = regexp.MustCompile(`^\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*:`)

// quoteName quotes a bare handler name ahead of the first colon, so names
// that expr-lang reserves as operators (in, not, let, if) still read as keys.
func quoteName(expr string) string {
	m := bareName.FindStringSubmatchIndex(expr)
	if m == nil {
		return expr
	}
	return strconv.Quote(expr[m[2]:m[3]]) + expr[m[3]:]
}

func literalKey(node ast.Node) (string, error) {
	switch n := node.(type) {
	case *ast.StringNode:
		return n.Value, nil
	case *ast.IdentifierNode:
		return n.Value, nil
	case *ast.IntegerNode:
		return strconv.Itoa(n.Value), nil
	default:
		return "", fmt.Errorf("unsupported key %T", node)
	}
}

func literalValue(node ast.Node) (any, error) {
	switch n := node.(type) {
	case *ast.StringNode:
		return n.Value, nil
	case *ast.IntegerNode:
		return n.Value, nil
	case *ast.FloatNode:
		return n.Value, nil
	case *ast.BoolNode:
		return n.Value, nil
	case *ast.NilNode:
		return nil, nil
	case *ast.IdentifierNode:
		// JSON spells it null; expr-lang only knows nil.
		if n.Value == "null" {
			return nil, nil
		}
		return nil, fmt.Errorf("unsupported identifier %q", n.Value)
	case *ast.ConstantNode:
		return n.Value, nil
	case *ast.UnaryNode:
		return negate(n)
	case *ast.ArrayNode:
		items := make([]any, 0, len(n.Nodes))
		for _, item := range n.Nodes {
			v, err := literalValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case *ast.MapNode:
		obj := make(map[string]any, len(n.Pairs))
		for _, member := range n.Pairs {
			pair, ok := member.(*ast.PairNode)
			if !ok {
				return nil, fmt.Errorf("unexpected object member %T", member)
			}
			key, err := literalKey(pair.Key)
			if err != nil {
				return nil, err
			}
			v, err := literalValue(pair.Value)
			if err != nil {
				return nil, err
			}
			obj[key] = v
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported value %T", node)
	}
}

func negate(n *ast.UnaryNode) (any, error) {
	if n.Operator != "-" && n.Operator != "+" {
		return nil, fmt.Errorf("unsupported operator %q", n.Operator)
	}
	v, err := literalValue(n.Node)
	if err != nil {
		return nil, err
	}
	if n.Operator == "+" {
		switch v.(type) {
		case int, float64:
			return v, nil
		}
		return nil, fmt.Errorf("unary + on %T", v)
	}
	switch x := v.(type) {
	case int:
		return -x, nil
	case float64:
		return -x, nil
	default:
		return nil, fmt.Errorf("unary - on %T", v)
	}
}
