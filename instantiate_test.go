// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "testing"

func TestInstantiatorWouldInstantiate(t *testing.T) {
	in := NewTypeInstantiator(primTypeDef(1), []TypeSig{{Elem: ElemI4}})

	tests := []struct {
		name string
		sig  TypeSig
		want bool
	}{
		{"bare var", TypeSig{Elem: ElemVar}, true},
		{"bare mvar, no method args", TypeSig{Elem: ElemMVar}, false},
		{"concrete primitive", TypeSig{Elem: ElemString}, false},
		{"array of var", TypeSig{Elem: ElemSZArray, Element: &TypeSig{Elem: ElemVar}}, true},
		{"array of concrete", TypeSig{Elem: ElemSZArray, Element: &TypeSig{Elem: ElemI4}}, false},
		{
			"generic inst with var arg",
			TypeSig{Elem: ElemGenericInst, Args: []TypeSig{{Elem: ElemI4}, {Elem: ElemVar}}},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := in.WouldInstantiate(tt.sig); got != tt.want {
				t.Errorf("WouldInstantiate(%+v) = %v, want %v", tt.sig, got, tt.want)
			}
		})
	}
}

func TestInstantiatorSubstitutesVar(t *testing.T) {
	source := primTypeDef(7)
	in := NewTypeInstantiator(source, []TypeSig{{Elem: ElemString}})

	got := in.Instantiate(TypeSig{Elem: ElemVar, Ordinal: 0})
	if got.Elem != ElemString {
		t.Fatalf("Instantiate(var 0) = %+v, want a String node", got)
	}
}

func TestInstantiatorAnnotatesCrossedVariable(t *testing.T) {
	// Substituting var#0 with another (outer) var#2 must annotate the
	// result, since it is still a free variable that crossed into a new
	// declaring context.
	source := primTypeDef(7)
	in := NewTypeInstantiator(source, []TypeSig{{Elem: ElemVar, Ordinal: 2}})

	got := in.Instantiate(TypeSig{Elem: ElemVar, Ordinal: 0})
	if got.Elem != elemAnnotatedVar {
		t.Fatalf("Instantiate(var 0) = %+v, want an annotated var", got)
	}
	if got.Ordinal != 2 {
		t.Errorf("Ordinal = %d, want 2 (the substituted argument's own ordinal)", got.Ordinal)
	}
	if !got.Context.Equal(source) {
		t.Errorf("Context = %+v, want %+v", got.Context, source)
	}
}

func TestInstantiatorLeavesOutOfRangeOrdinalUntouched(t *testing.T) {
	in := NewTypeInstantiator(primTypeDef(1), []TypeSig{{Elem: ElemI4}})
	got := in.Instantiate(TypeSig{Elem: ElemVar, Ordinal: 5})
	if got.Elem != ElemVar || got.Ordinal != 5 {
		t.Errorf("out-of-range ordinal was rewritten: %+v", got)
	}
}

func TestInstantiatorRecursesThroughGenericInst(t *testing.T) {
	in := NewTypeInstantiator(primTypeDef(1), []TypeSig{{Elem: ElemI4}, {Elem: ElemObject}})
	sig := TypeSig{
		Elem: ElemGenericInst,
		Args: []TypeSig{{Elem: ElemVar, Ordinal: 0}, {Elem: ElemVar, Ordinal: 1}},
	}
	got := in.Instantiate(sig)
	if len(got.Args) != 2 || got.Args[0].Elem != ElemI4 || got.Args[1].Elem != ElemObject {
		t.Fatalf("unexpected instantiated args: %+v", got.Args)
	}
}

func TestInstantiatorMethodInstantiator(t *testing.T) {
	source := Token{Table: TableMethodDef, Row: 4}
	in := NewMethodInstantiator(source, []TypeSig{{Elem: ElemI8}})
	m := MethodSig{
		RetType: TypeSig{Elem: ElemMVar, Ordinal: 0},
		Params:  []TypeSig{{Elem: ElemString}},
	}
	got := in.instantiateMethod(m)
	if got.RetType.Elem != ElemI8 {
		t.Fatalf("RetType = %+v, want an I8 node", got.RetType)
	}
	if len(got.Params) != 1 || got.Params[0].Elem != ElemString {
		t.Errorf("Params should pass through unaffected concrete types: %+v", got.Params)
	}
}
