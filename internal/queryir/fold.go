package queryir

import "fmt"

// IsClosed reports whether e is independent of the issue being filtered,
// i.e. it contains no FieldRef or CustomFieldRef.
func IsClosed(e Expr) bool {
	switch x := e.(type) {
	case nil:
		return true
	case *Const:
		return true
	case *FieldRef, *CustomFieldRef:
		return false
	case *Call:
		for _, a := range x.Args {
			if !IsClosed(a) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Fold returns a copy of n in which every closed expression has been
// reduced to a single Const holding its computed value.
//
// Call constructors are evaluated bottom-up. If a constructor returns an
// error, Fold stops and returns that error unmodified; nothing is retried
// and no partial tree is returned. The input tree is never modified.
func Fold(n Node) (Node, error) {
	switch x := n.(type) {
	case nil:
		return nil, nil
	case *Source:
		return x, nil
	case *Where:
		src, err := Fold(x.Source)
		if err != nil {
			return nil, err
		}
		pred, err := Fold(x.Predicate)
		if err != nil {
			return nil, err
		}
		return &Where{Source: src, Predicate: pred}, nil
	case *OrderBy:
		src, err := Fold(x.Source)
		if err != nil {
			return nil, err
		}
		key, err := FoldExpr(x.Key)
		if err != nil {
			return nil, err
		}
		return &OrderBy{Source: src, Key: key, Descending: x.Descending, Secondary: x.Secondary}, nil
	case *Limit:
		src, err := Fold(x.Source)
		if err != nil {
			return nil, err
		}
		count, err := FoldExpr(x.Count)
		if err != nil {
			return nil, err
		}
		return &Limit{Source: src, Count: count}, nil
	case *Compare:
		left, err := FoldExpr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := FoldExpr(x.Right)
		if err != nil {
			return nil, err
		}
		return &Compare{Op: x.Op, Left: left, Right: right}, nil
	case *And:
		l, r, err := foldPair(x.Left, x.Right)
		if err != nil {
			return nil, err
		}
		return &And{Left: l, Right: r}, nil
	case *Or:
		l, r, err := foldPair(x.Left, x.Right)
		if err != nil {
			return nil, err
		}
		return &Or{Left: l, Right: r}, nil
	case *Not:
		op, err := Fold(x.Operand)
		if err != nil {
			return nil, err
		}
		return &Not{Operand: op}, nil
	case Expr:
		return FoldExpr(x)
	default:
		return nil, fmt.Errorf("fold: unknown node type %T", n)
	}
}

func foldPair(l, r Node) (Node, Node, error) {
	fl, err := Fold(l)
	if err != nil {
		return nil, nil, err
	}
	fr, err := Fold(r)
	if err != nil {
		return nil, nil, err
	}
	return fl, fr, nil
}

// FoldExpr reduces e to a Const when it is closed. Open expressions are
// returned with their closed arguments folded.
func FoldExpr(e Expr) (Expr, error) {
	switch x := e.(type) {
	case nil:
		return nil, nil
	case *Const, *FieldRef, *CustomFieldRef:
		return x, nil
	case *Call:
		args := make([]Expr, len(x.Args))
		closed := true
		for i, a := range x.Args {
			fa, err := FoldExpr(a)
			if err != nil {
				return nil, err
			}
			if _, ok := fa.(*Const); !ok {
				closed = false
			}
			args[i] = fa
		}
		if !closed || x.Fn == nil {
			return &Call{Name: x.Name, Fn: x.Fn, Args: args}, nil
		}
		values := make([]any, len(args))
		for i, a := range args {
			values[i] = a.(*Const).Value
		}
		v, err := x.Fn(values...)
		if err != nil {
			return nil, err
		}
		return &Const{Value: v}, nil
	default:
		return nil, fmt.Errorf("fold: unknown expression type %T", e)
	}
}
