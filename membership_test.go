// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import (
	"encoding/binary"
	"testing"
)

// buildMethodImplFanOutFixture builds a one-type database exercising
// spec.md §8 scenario S4: a derived type declares a single method ("Body")
// whose three MethodImpl rows each redirect a different inherited virtual
// slot (F, G, H) to it. Only Body's db.MethodDef row actually exists in
// this database; F/G/H are synthetic inherited tokens seeded directly into
// the MembershipTable, since methodImplOverrides trusts a MethodDef-table
// token without re-validating it against row data (mirroring how an
// inherited slot's token usually lives in a base type's own database).
func buildMethodImplFanOutFixture(t *testing.T) (*Loader, Token, TypeDefRow, *MembershipTable) {
	t.Helper()

	var raw []byte

	// TableTypeDef, 1 row: Flags=0, TypeName=0, TypeNamespace=0, Extends=0,
	// FieldList=0, MethodList=1 (Body is the type's sole declared method).
	typeDefBase := uint32(len(raw))
	raw = binary.LittleEndian.AppendUint32(raw, 0) // Flags
	raw = binary.LittleEndian.AppendUint16(raw, 0) // TypeName
	raw = binary.LittleEndian.AppendUint16(raw, 0) // TypeNamespace
	raw = binary.LittleEndian.AppendUint16(raw, 0) // Extends
	raw = binary.LittleEndian.AppendUint16(raw, 0) // FieldList
	raw = binary.LittleEndian.AppendUint16(raw, 1) // MethodList

	// TableMethodDef, 1 row ("Body"): virtual, public, signature at blob
	// offset 0 (instance, void, no params).
	methodDefBase := uint32(len(raw))
	raw = binary.LittleEndian.AppendUint32(raw, 0)                              // RVA
	raw = binary.LittleEndian.AppendUint16(raw, 0)                              // ImplFlags
	raw = binary.LittleEndian.AppendUint16(raw, methodVirtual|methodAccessPublic) // Flags
	raw = binary.LittleEndian.AppendUint16(raw, 0)                              // Name
	raw = binary.LittleEndian.AppendUint16(raw, 0)                              // Signature (blob offset 0)
	raw = binary.LittleEndian.AppendUint16(raw, 1)                              // ParamList

	// TableMethodImpl, 3 rows, all Class=typeDef row 1, MethodBody=Body
	// (MethodDef row 1, coded tag 0), MethodDeclaration redirecting to
	// inherited slots F (row 10), G (row 11), H (row 12).
	methodImplBase := uint32(len(raw))
	for _, declRow := range []uint32{10, 11, 12} {
		raw = binary.LittleEndian.AppendUint16(raw, 1)                  // Class (TypeDef row 1)
		raw = binary.LittleEndian.AppendUint16(raw, uint16(1<<1))       // MethodBody: tag 0 (MethodDef), row 1
		raw = binary.LittleEndian.AppendUint16(raw, uint16(declRow<<1)) // MethodDeclaration: tag 0, row declRow
	}

	db := &Database{
		raw:   newByteView(raw),
		blobs: blobHeap{v: newByteView([]byte{0x03, 0x20, 0x00, 0x01})}, // HASTHIS, 0 params, void
		tables: map[TableID]tableLayout{
			TableTypeDef: {
				present: true, base: typeDefBase, rowSize: 14, rowCount: 1,
				columnOffsets: []uint32{0, 4, 6, 8, 10, 12},
				columnWidths:  []uint32{4, 2, 2, 2, 2, 2},
			},
			TableMethodDef: {
				present: true, base: methodDefBase, rowSize: 14, rowCount: 1,
				columnOffsets: []uint32{0, 4, 6, 8, 10, 12},
				columnWidths:  []uint32{4, 2, 2, 2, 2, 2},
			},
			TableMethodImpl: {
				present: true, base: methodImplBase, rowSize: 6, rowCount: 3,
				columnOffsets: []uint32{0, 2, 4},
				columnWidths:  []uint32{2, 2, 2},
			},
		},
	}

	typeDef := Token{db: db, Table: TableTypeDef, Row: 1}
	td, err := db.TypeDef(1)
	if err != nil {
		t.Fatalf("TypeDef(1) fixture setup failed: %v", err)
	}

	f := Token{db: db, Table: TableMethodDef, Row: 10}
	g := Token{db: db, Table: TableMethodDef, Row: 11}
	h := Token{db: db, Table: TableMethodDef, Row: 12}
	table := &MembershipTable{
		Methods: []MethodEntry{
			{Token: f, Name: "F", DeclaringType: Token{db: db, Table: TableTypeDef, Row: 2}, Virtual: true},
			{Token: g, Name: "G", DeclaringType: Token{db: db, Table: TableTypeDef, Row: 2}, Virtual: true},
			{Token: h, Name: "H", DeclaringType: Token{db: db, Table: TableTypeDef, Row: 2}, Virtual: true},
		},
		inheritedMethods: 3,
	}

	l := &Loader{moduleOf: map[*Database]*ModuleContext{db: {}}}
	return l, typeDef, td, table
}

func TestEnumerateMethodsCollapsesMethodImplFanOut(t *testing.T) {
	l, typeDef, td, table := buildMethodImplFanOutFixture(t)

	if err := l.enumerateMethods(table, typeDef, td, &Instantiator{}); err != nil {
		t.Fatalf("enumerateMethods failed: %v", err)
	}

	if len(table.Methods) != 1 {
		t.Fatalf("len(table.Methods) = %d, want 1 (F, G, and H should collapse into the single overriding body)", len(table.Methods))
	}
	body := Token{db: typeDef.Database(), Table: TableMethodDef, Row: 1}
	if !table.Methods[0].Token.Equal(body) {
		t.Fatalf("surviving entry token = %+v, want the overriding body %+v", table.Methods[0].Token, body)
	}
	if table.inheritedMethods != 1 {
		t.Fatalf("inheritedMethods = %d, want 1 after collapsing two redundant inherited slots", table.inheritedMethods)
	}
}

func TestMethodImplOverridesKeepsEveryDeclarationForOneBody(t *testing.T) {
	l, typeDef, _, _ := buildMethodImplFanOutFixture(t)

	overrides, err := l.methodImplOverrides(typeDef)
	if err != nil {
		t.Fatalf("methodImplOverrides failed: %v", err)
	}
	body := Token{db: typeDef.Database(), Table: TableMethodDef, Row: 1}
	decls, ok := overrides[body]
	if !ok || len(decls) != 3 {
		t.Fatalf("overrides[body] = %v (ok=%v), want 3 declarations", decls, ok)
	}
}
