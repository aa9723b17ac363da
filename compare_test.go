// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "testing"

func primTypeDef(row uint32) Token {
	return Token{db: nil, Table: TableTypeDef, Row: row}
}

func TestSignaturesEqualPrimitives(t *testing.T) {
	tests := []struct {
		name string
		a, b TypeSig
		want bool
	}{
		{"same primitive", TypeSig{Elem: ElemI4}, TypeSig{Elem: ElemI4}, true},
		{"different primitive", TypeSig{Elem: ElemI4}, TypeSig{Elem: ElemI8}, false},
		{"different family entirely", TypeSig{Elem: ElemI4}, TypeSig{Elem: ElemVar, Ordinal: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := signaturesEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("signaturesEqual(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSignaturesEqualClassTokens(t *testing.T) {
	a := TypeSig{Elem: ElemClass, TypeToken: primTypeDef(3)}
	b := TypeSig{Elem: ElemClass, TypeToken: primTypeDef(3)}
	c := TypeSig{Elem: ElemClass, TypeToken: primTypeDef(4)}

	if !signaturesEqual(a, b) {
		t.Errorf("expected equal class signatures with the same token")
	}
	if signaturesEqual(a, c) {
		t.Errorf("expected unequal class signatures with different tokens")
	}
}

func TestSignaturesEqualVarOrdinal(t *testing.T) {
	a := TypeSig{Elem: ElemVar, Ordinal: 1}
	b := TypeSig{Elem: ElemVar, Ordinal: 1}
	c := TypeSig{Elem: ElemVar, Ordinal: 2}
	if !signaturesEqual(a, b) {
		t.Errorf("expected var ordinal 1 == var ordinal 1")
	}
	if signaturesEqual(a, c) {
		t.Errorf("expected var ordinal 1 != var ordinal 2")
	}
}

func TestSignaturesEqualAnnotatedVarRequiresContext(t *testing.T) {
	ctxA := Token{Table: TableTypeDef, Row: 1}
	ctxB := Token{Table: TableTypeDef, Row: 2}
	a := TypeSig{Elem: elemAnnotatedVar, Ordinal: 0, Context: ctxA, HasContext: true}
	b := TypeSig{Elem: elemAnnotatedVar, Ordinal: 0, Context: ctxA, HasContext: true}
	c := TypeSig{Elem: elemAnnotatedVar, Ordinal: 0, Context: ctxB, HasContext: true}

	if !signaturesEqual(a, b) {
		t.Errorf("expected equal annotated vars with the same context")
	}
	if signaturesEqual(a, c) {
		t.Errorf("expected unequal annotated vars with different contexts")
	}
}

func TestSignaturesEqualArraysAndGenericInst(t *testing.T) {
	elemI4 := TypeSig{Elem: ElemI4}
	elemI8 := TypeSig{Elem: ElemI8}

	sz1 := TypeSig{Elem: ElemSZArray, Element: &elemI4}
	sz2 := TypeSig{Elem: ElemSZArray, Element: &elemI4}
	sz3 := TypeSig{Elem: ElemSZArray, Element: &elemI8}
	if !signaturesEqual(sz1, sz2) {
		t.Errorf("expected equal SZArray(I4) signatures")
	}
	if signaturesEqual(sz1, sz3) {
		t.Errorf("expected SZArray(I4) != SZArray(I8)")
	}

	gen := primTypeDef(9)
	g1 := TypeSig{Elem: ElemGenericInst, GenericType: &TypeSig{Elem: ElemClass, TypeToken: gen}, Args: []TypeSig{elemI4}}
	g2 := TypeSig{Elem: ElemGenericInst, GenericType: &TypeSig{Elem: ElemClass, TypeToken: gen}, Args: []TypeSig{elemI4}}
	g3 := TypeSig{Elem: ElemGenericInst, GenericType: &TypeSig{Elem: ElemClass, TypeToken: gen}, Args: []TypeSig{elemI8}}
	if !signaturesEqual(g1, g2) {
		t.Errorf("expected equal generic instantiations with matching args")
	}
	if signaturesEqual(g1, g3) {
		t.Errorf("expected generic instantiations with differing args to be unequal")
	}
}

func TestMethodSignaturesCompatible(t *testing.T) {
	base := MethodSig{
		CallingConvention: callingConvDefault,
		HasThis:           true,
		RetType:           TypeSig{Elem: ElemVoid},
		Params:            []TypeSig{{Elem: ElemI4}, {Elem: ElemString}},
	}
	same := base
	same.Params = []TypeSig{{Elem: ElemI4}, {Elem: ElemString}}

	diffParamType := base
	diffParamType.Params = []TypeSig{{Elem: ElemI4}, {Elem: ElemObject}}

	diffArity := base
	diffArity.Params = []TypeSig{{Elem: ElemI4}}

	diffHasThis := base
	diffHasThis.HasThis = false

	if !methodSignaturesCompatible(base, same) {
		t.Errorf("expected identical signatures to compare compatible")
	}
	if methodSignaturesCompatible(base, diffParamType) {
		t.Errorf("expected differing parameter type to be incompatible")
	}
	if methodSignaturesCompatible(base, diffArity) {
		t.Errorf("expected differing parameter count to be incompatible")
	}
	if methodSignaturesCompatible(base, diffHasThis) {
		t.Errorf("expected differing HasThis to be incompatible")
	}
}

func TestCustomModifiersEqual(t *testing.T) {
	reqd := CustomModifier{Required: true, Type: primTypeDef(1)}
	opt := CustomModifier{Required: false, Type: primTypeDef(1)}

	if !customModifiersEqual([]CustomModifier{reqd}, []CustomModifier{reqd}) {
		t.Errorf("expected identical modifier lists to be equal")
	}
	if customModifiersEqual([]CustomModifier{reqd}, []CustomModifier{opt}) {
		t.Errorf("expected required/optional modifiers to differ")
	}
	if customModifiersEqual([]CustomModifier{reqd}, nil) {
		t.Errorf("expected a modifier list to differ from an empty one")
	}
}
