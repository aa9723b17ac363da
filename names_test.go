// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "testing"

func TestNameSigFundamentalTypes(t *testing.T) {
	tn := NewTypeNamer(nil)
	tests := []struct {
		elem ElementType
		want string
	}{
		{ElemI4, "Int32"},
		{ElemString, "String"},
		{ElemBoolean, "Boolean"},
		{ElemObject, "Object"},
	}
	for _, tt := range tests {
		got, err := tn.NameSig(TypeSig{Elem: tt.elem}, NameSimple)
		if err != nil {
			t.Fatalf("NameSig(%v) failed: %v", tt.elem, err)
		}
		if got != tt.want {
			t.Errorf("NameSig(%v) = %q, want %q", tt.elem, got, tt.want)
		}
	}
}

func TestNameSigArraysPointersByRef(t *testing.T) {
	tn := NewTypeNamer(nil)
	i4 := TypeSig{Elem: ElemI4}

	got, err := tn.NameSig(TypeSig{Elem: ElemSZArray, Element: &i4}, NameSimple)
	if err != nil || got != "Int32[]" {
		t.Fatalf("SZArray name = %q, err %v, want Int32[]", got, err)
	}

	got, err = tn.NameSig(TypeSig{Elem: ElemArray, Rank: 3, Element: &i4}, NameSimple)
	if err != nil || got != "Int32[,,]" {
		t.Fatalf("rank-3 array name = %q, err %v, want Int32[,,]", got, err)
	}

	got, err = tn.NameSig(TypeSig{Elem: ElemPtr, Element: &i4}, NameSimple)
	if err != nil || got != "Int32*" {
		t.Fatalf("pointer name = %q, err %v, want Int32*", got, err)
	}

	got, err = tn.NameSig(TypeSig{Elem: ElemByRef, Element: &i4}, NameSimple)
	if err != nil || got != "Int32&" {
		t.Fatalf("by-ref name = %q, err %v, want Int32&", got, err)
	}
}

func TestNameSigVoidPointer(t *testing.T) {
	tn := NewTypeNamer(nil)
	got, err := tn.NameSig(TypeSig{Elem: ElemPtr, Element: nil}, NameSimple)
	if err != nil || got != "void*" {
		t.Fatalf("void pointer name = %q, err %v, want void*", got, err)
	}
}

func TestNameSigVarOrdinal(t *testing.T) {
	tn := NewTypeNamer(nil)
	got, err := tn.NameSig(TypeSig{Elem: ElemVar, Ordinal: 0}, NameSimple)
	if err != nil || got != "!0" {
		t.Fatalf("var name = %q, err %v, want !0", got, err)
	}
	got, err = tn.NameSig(TypeSig{Elem: ElemMVar, Ordinal: 2}, NameSimple)
	if err != nil || got != "!2" {
		t.Fatalf("mvar name = %q, err %v, want !2", got, err)
	}
}

// buildGenericParamFixture builds a Database with a single GenericParam
// row (Number 0, Flags 0, Name empty) owned by TypeDef row ownerRow, to
// exercise hasGenericParams without a full PE/metadata fixture.
func buildGenericParamFixture(t *testing.T, ownerRow uint32) *Database {
	t.Helper()
	raw := []byte{
		0x00, 0x00, // Number
		0x00, 0x00, // Flags
		byte(ownerRow<<1) | 0x00, 0x00, // Owner: codedTypeOrMethodDef tag 0 (TypeDef)
		0x00, 0x00, // Name
	}
	return &Database{
		raw: newByteView(raw),
		tables: map[TableID]tableLayout{
			TableGenericParam: {
				present:       true,
				base:          0,
				rowSize:       8,
				rowCount:      1,
				columnOffsets: []uint32{0, 2, 4, 6},
				columnWidths:  []uint32{2, 2, 2, 2},
			},
		},
	}
}

func TestHasGenericParamsNonTypeDefShortCircuits(t *testing.T) {
	tok := Token{Table: TableTypeRef, Row: 1}
	generic, err := hasGenericParams(tok)
	if err != nil || generic {
		t.Fatalf("hasGenericParams(TypeRef) = (%v, %v), want (false, nil)", generic, err)
	}
}

func TestHasGenericParamsNoOwnedRows(t *testing.T) {
	db := &Database{tables: map[TableID]tableLayout{
		TableGenericParam: {rowCount: 0},
	}}
	tok := Token{db: db, Table: TableTypeDef, Row: 1}
	generic, err := hasGenericParams(tok)
	if err != nil || generic {
		t.Fatalf("hasGenericParams(closed TypeDef) = (%v, %v), want (false, nil)", generic, err)
	}
}

func TestNameSigRefusesUninstantiatedGenericFullName(t *testing.T) {
	// A TypeDef whose row appears as a GenericParam Owner is an
	// uninstantiated generic type definition; spec.md §4.9 says it has no
	// renderable full/AQN name, only NameSimple.
	db := buildGenericParamFixture(t, 1)
	tn := NewTypeNamer(nil)
	sig := TypeSig{Elem: ElemClass, TypeToken: Token{db: db, Table: TableTypeDef, Row: 1}}

	if _, err := tn.NameSig(sig, NameFull); err != ErrLogicViolation {
		t.Fatalf("NameSig(NameFull) on an uninstantiated generic = %v, want ErrLogicViolation", err)
	}
	if _, err := tn.NameSig(sig, NameAssemblyQualified); err != ErrLogicViolation {
		t.Fatalf("NameSig(NameAssemblyQualified) on an uninstantiated generic = %v, want ErrLogicViolation", err)
	}
}

func TestRenderAssemblyName(t *testing.T) {
	n := AssemblyName{
		Name: "mscorlib", MajorVersion: 4, MinorVersion: 0, BuildNumber: 0, RevisionNumber: 0,
	}
	got := renderAssemblyName(n)
	want := "mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=null"
	if got != want {
		t.Errorf("renderAssemblyName = %q, want %q", got, want)
	}

	withKey := n
	withKey.PublicKey = []byte{0xde, 0xad, 0xbe, 0xef}
	got = renderAssemblyName(withKey)
	want = "mscorlib, Version=4.0.0.0, Culture=neutral, PublicKeyToken=deadbeef"
	if got != want {
		t.Errorf("renderAssemblyName(with key) = %q, want %q", got, want)
	}
}
