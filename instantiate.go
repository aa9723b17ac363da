// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// Instantiator carries a sequence of argument signatures plus two
// optional source tokens (declaring type, declaring method), per spec.md
// §4.7. It rewrites `var`/`mvar` element-type nodes in a signature into
// their corresponding argument, annotating the substitution with the
// context it crossed into so a later re-instantiation still targets the
// right generic parameter.
type Instantiator struct {
	typeArgs   []TypeSig
	methodArgs []TypeSig
	typeSource Token
	methodSource Token
}

// NewTypeInstantiator builds an instantiator substituting `var` ordinals
// with the given generic-instance arguments, recording source as the
// declaring type for annotation purposes.
func NewTypeInstantiator(source Token, args []TypeSig) *Instantiator {
	return &Instantiator{typeArgs: args, typeSource: source}
}

// NewMethodInstantiator builds an instantiator substituting `mvar`
// ordinals with the given method-spec arguments, recording source as the
// declaring method.
func NewMethodInstantiator(source Token, args []TypeSig) *Instantiator {
	return &Instantiator{methodArgs: args, methodSource: source}
}

// WouldInstantiate reports whether sig mentions any var or mvar this
// instantiator has arguments for.
func (in *Instantiator) WouldInstantiate(sig TypeSig) bool {
	switch sig.Elem {
	case ElemVar:
		return int(sig.Ordinal) < len(in.typeArgs)
	case ElemMVar:
		return int(sig.Ordinal) < len(in.methodArgs)
	case ElemPtr, ElemByRef, ElemSZArray:
		return sig.Element != nil && in.WouldInstantiate(*sig.Element)
	case ElemArray:
		return sig.Element != nil && in.WouldInstantiate(*sig.Element)
	case ElemGenericInst:
		for _, a := range sig.Args {
			if in.WouldInstantiate(a) {
				return true
			}
		}
		return false
	case ElemFnPtr:
		if sig.Method == nil {
			return false
		}
		return in.wouldInstantiateMethod(*sig.Method)
	default:
		return false
	}
}

func (in *Instantiator) wouldInstantiateMethod(m MethodSig) bool {
	if in.WouldInstantiate(m.RetType) {
		return true
	}
	for _, p := range m.Params {
		if in.WouldInstantiate(p) {
			return true
		}
	}
	return false
}

// Instantiate produces a new signature with every free var/mvar this
// instantiator has arguments for replaced by the corresponding argument
// signature. Only an argument that is itself a var/mvar is annotated with
// the declaring context token; a concrete argument is inserted unchanged.
func (in *Instantiator) Instantiate(sig TypeSig) TypeSig {
	switch sig.Elem {
	case ElemVar:
		if in.typeArgs == nil || int(sig.Ordinal) >= len(in.typeArgs) {
			return sig
		}
		return annotate(in.typeArgs[sig.Ordinal], elemAnnotatedVar, sig.Ordinal, in.typeSource)

	case ElemMVar:
		if in.methodArgs == nil || int(sig.Ordinal) >= len(in.methodArgs) {
			return sig
		}
		return annotate(in.methodArgs[sig.Ordinal], elemAnnotatedMVar, sig.Ordinal, in.methodSource)

	case ElemPtr, ElemByRef, ElemSZArray:
		if sig.Element == nil {
			return sig
		}
		elem := in.Instantiate(*sig.Element)
		out := sig
		out.Element = &elem
		return out

	case ElemArray:
		if sig.Element == nil {
			return sig
		}
		elem := in.Instantiate(*sig.Element)
		out := sig
		out.Element = &elem
		return out

	case ElemGenericInst:
		out := sig
		out.Args = make([]TypeSig, len(sig.Args))
		for i, a := range sig.Args {
			out.Args[i] = in.Instantiate(a)
		}
		return out

	case ElemFnPtr:
		if sig.Method == nil {
			return sig
		}
		m := in.instantiateMethod(*sig.Method)
		out := sig
		out.Method = &m
		return out

	default:
		return sig
	}
}

func (in *Instantiator) instantiateMethod(m MethodSig) MethodSig {
	out := m
	out.RetType = in.Instantiate(m.RetType)
	out.Params = make([]TypeSig, len(m.Params))
	for i, p := range m.Params {
		out.Params[i] = in.Instantiate(p)
	}
	return out
}

// annotate rewrites a just-substituted argument into an annotated
// var/mvar node identifying the ordinal and context it originated from,
// unless the argument is itself a concrete (non-variable) type, in which
// case it is returned unchanged: only variables crossing a scope boundary
// need the annotation (spec.md §4.7).
func annotate(arg TypeSig, marker ElementType, ordinal uint32, source Token) TypeSig {
	if arg.Elem != ElemVar && arg.Elem != ElemMVar {
		return arg
	}
	out := arg
	out.Elem = marker
	out.Context = source
	out.HasContext = true
	return out
}
