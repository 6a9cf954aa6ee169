package scope

// resolveAll binds every recorded reference to the variable it statically
// refers to, if any, and marks variables referenced across function
// boundaries as captured.
func (a *analyzer) resolveAll() {
	for _, r := range a.tree.refs {
		var v *Variable
		var crossed bool
		if f := r.Scope.ThisFunc(); r.Name == "arguments" && f.Kind == Function {
			v, crossed = lookupArguments(r.Scope, f)
		} else {
			v, crossed = lookupStatic(r.Scope, r.Name)
		}
		if v == nil {
			continue
		}
		r.Var = v
		if crossed {
			v.Captured = true
		}
		v.Refs = append(v.Refs, r)
		if r.assign != nil {
			v.Assignments = append(v.Assignments, *r.assign)
		}
	}
}

func declareArguments(f *Scope) {
	v, fresh := f.declare("arguments", Arguments)
	if fresh {
		v.hasInit = true
		f.Hints.Arguments = true
	}
}

// lookupArguments resolves "arguments" referenced from s, whose nearest
// non-arrow function is f. Bindings outside f are never visible: without one
// inside, the name refers to the arguments object of f.
func lookupArguments(s, f *Scope) (*Variable, bool) {
	crossed := false
	for ; s != f; s = s.Parent {
		if v := s.byName["arguments"]; v != nil {
			return v, crossed
		}
		if s.Kind == Function {
			crossed = true
		}
	}
	if f.byName["arguments"] == nil {
		declareArguments(f)
	}
	return f.byName["arguments"], crossed
}

func lookupStatic(s *Scope, name string) (*Variable, bool) {
	crossed := false
	for ; s != nil; s = s.Parent {
		if v := s.byName[name]; v != nil {
			return v, crossed
		}
		if s.Kind == Function {
			crossed = true
		}
	}
	return nil, false
}

// finish computes materialization and dominance bottom-up.
func (a *analyzer) finish(s *Scope) {
	for _, c := range s.Children {
		a.finish(c)
	}
	if s.Kind == Function && s.Hints.Eval {
		// Evaluated code may refer to the arguments object by name.
		if f := s.ThisFunc(); f.Kind == Function {
			declareArguments(f)
		}
	}
	captured := false
	for _, v := range s.Vars {
		if v.Captured {
			captured = true
		}
		v.Dominated = dominated(v)
	}
	switch s.Kind {
	case Function:
		s.Materialized = captured || s.Dynamic
	case Block, Catch:
		s.Materialized = captured || (s.Dynamic && len(s.Vars) > 0)
	case With, Eval:
		s.Materialized = true
	}
}

func dominated(v *Variable) bool {
	switch v.Kind {
	case Param, FunctionDecl, FunctionName, Arguments:
		return true
	}
	if !v.hasInit || v.declList == nil || v.declList.switchCase {
		return false
	}
	if v.Scope.Dynamic || v.Scope.Kind == Global || v.Scope.Kind == Eval {
		return false
	}
	for _, r := range v.Refs {
		if r.Offset < v.declEnd || r.Offset >= v.declList.end {
			return false
		}
		if throughDeclaration(r.Scope, v.Scope) {
			return false
		}
	}
	return true
}

// throughDeclaration reports whether a reference from s to a variable of
// scope to sits in a function declaration nested inside to; such a function
// is hoisted and may run before the declaration.
func throughDeclaration(s, to *Scope) bool {
	for ; s != nil && s != to; s = s.Parent {
		if s.Kind == Function && s.IsDeclaration {
			return true
		}
	}
	return false
}

// Resolution is the compile-time answer to where a name lives.
type Resolution struct {
	// Var is the variable the name statically refers to, or nil if it is
	// not declared in any enclosing scope.
	Var *Variable
	// Depth is the number of runtime records between the referring scope
	// and the record holding Var.
	Depth int
	// Probe is set when a with scope or a var scope open to eval lies
	// between the reference and Var; the name must then be searched in the
	// intervening records before using the static location.
	Probe bool
}

// IsDynamic reports whether the name can only be found by a runtime lookup:
// it is undeclared, or declared at the top level of a global or eval unit.
func (r Resolution) IsDynamic() bool {
	return r.Var == nil || r.Var.Scope.Kind == Global || r.Var.Scope.Kind == Eval
}

// Resolve resolves name as referenced from scope s.
func Resolve(s *Scope, name string) Resolution {
	var res Resolution
	for ; s != nil; s = s.Parent {
		if v := s.byName[name]; v != nil {
			res.Var = v
			return res
		}
		if s.Kind == With || s.IsEvalVarScope() {
			res.Probe = true
		}
		if s.Materialized {
			res.Depth++
		}
	}
	return res
}

// DepthTo returns the number of runtime records between s and an enclosing
// scope to, excluding the record of to itself.
func DepthTo(s, to *Scope) int {
	depth := 0
	for ; s != to; s = s.Parent {
		if s.Materialized {
			depth++
		}
	}
	return depth
}
