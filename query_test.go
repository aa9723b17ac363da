// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import (
	"encoding/binary"
	"testing"
)

func TestBindingFlagsHas(t *testing.T) {
	f := BindPublic | BindInstance
	if !f.Has(BindPublic) {
		t.Errorf("expected Has(BindPublic)")
	}
	if !f.Has(BindPublic | BindInstance) {
		t.Errorf("expected Has(BindPublic|BindInstance)")
	}
	if f.Has(BindStatic) {
		t.Errorf("did not expect Has(BindStatic)")
	}
	if f.Has(BindNonPublic | BindPublic) {
		t.Errorf("Has should require every bit of the mask, not just one")
	}
}

func TestExcludeByStaticAndAccess(t *testing.T) {
	flags := BindInstance | BindPublic
	if excludeByStatic(false, flags) {
		t.Errorf("instance member should not be excluded when BindInstance is set")
	}
	if !excludeByStatic(true, flags) {
		t.Errorf("static member should be excluded when BindStatic is not set")
	}
	if excludeByAccess(true, flags) {
		t.Errorf("public member should not be excluded when BindPublic is set")
	}
	if !excludeByAccess(false, flags) {
		t.Errorf("non-public member should be excluded when BindNonPublic is not set")
	}
}

func owner() Token { return Token{Table: TableTypeDef, Row: 1} }

func TestQueryFieldsDeclaredOnly(t *testing.T) {
	self := owner()
	base := Token{Table: TableTypeDef, Row: 2}
	table := &MembershipTable{
		Fields: []FieldEntry{
			{Name: "Declared", DeclaringType: self, Access: fieldAccessPublic},
			{Name: "Inherited", DeclaringType: base, Access: fieldAccessPublic},
		},
	}

	all := QueryFields(table, self, BindInstance|BindPublic|BindNonPublic|BindStatic)
	if len(all) != 2 {
		t.Fatalf("len(all) = %d, want 2", len(all))
	}

	declaredOnly := QueryFields(table, self, BindInstance|BindPublic|BindNonPublic|BindStatic|BindDeclaredOnly)
	if len(declaredOnly) != 1 || declaredOnly[0].Name != "Declared" {
		t.Fatalf("declaredOnly = %+v, want only the Declared field", declaredOnly)
	}
}

func TestQueryFieldsInheritedPrivateHidden(t *testing.T) {
	self := owner()
	base := Token{Table: TableTypeDef, Row: 2}
	table := &MembershipTable{
		Fields: []FieldEntry{
			{Name: "_hidden", DeclaringType: base, Access: fieldAccessPrivate},
			{Name: "Outer.Inner._hidden", DeclaringType: base, Access: fieldAccessPrivate},
		},
	}
	got := QueryFields(table, self, BindInstance|BindNonPublic)
	if len(got) != 1 || got[0].Name != "Outer.Inner._hidden" {
		t.Fatalf("got %+v, want only the dotted (explicit-interface-style) private field", got)
	}
}

func TestQueryFieldsInheritedStaticRequiresFlatten(t *testing.T) {
	self := owner()
	base := Token{Table: TableTypeDef, Row: 2}
	table := &MembershipTable{
		Fields: []FieldEntry{
			{Name: "Shared", DeclaringType: base, Access: fieldAccessPublic, Static: true},
		},
	}
	withoutFlatten := QueryFields(table, self, BindStatic|BindPublic)
	if len(withoutFlatten) != 0 {
		t.Fatalf("expected inherited static field hidden without BindFlattenHierarchy, got %+v", withoutFlatten)
	}
	withFlatten := QueryFields(table, self, BindStatic|BindPublic|BindFlattenHierarchy)
	if len(withFlatten) != 1 {
		t.Fatalf("expected inherited static field visible with BindFlattenHierarchy, got %+v", withFlatten)
	}
}

func TestQueryMethodsSeparatesConstructors(t *testing.T) {
	self := owner()
	table := &MembershipTable{
		Methods: []MethodEntry{
			{Name: ".ctor", DeclaringType: self, Access: methodAccessPublic},
			{Name: "DoWork", DeclaringType: self, Access: methodAccessPublic},
		},
	}
	ctors := QueryMethods(table, self, BindInstance|BindPublic|BindInternalOnlyConstructor)
	if len(ctors) != 1 || ctors[0].Name != ".ctor" {
		t.Fatalf("ctors = %+v, want only .ctor", ctors)
	}
	ordinary := QueryMethods(table, self, BindInstance|BindPublic)
	if len(ordinary) != 1 || ordinary[0].Name != "DoWork" {
		t.Fatalf("ordinary = %+v, want only DoWork", ordinary)
	}
}

// buildParametersFixture builds a one-method database with two Param rows:
// "a" (In, carrying a FieldMarshal descriptor) and "b" (Out, Optional, with
// a Constant default value), to exercise Parameters' promised default-value/
// marshal/attribute-flag wiring (rows.go's Constant/FieldMarshal decoders).
func buildParametersFixture(t *testing.T) (*Database, MethodDefRow) {
	t.Helper()

	// #Blob: [0]=empty (unused MethodDef signature), [1..5]=Constant.Value
	// (length 4, bytes 0x2a000000), [6..7]=FieldMarshal.NativeType (length
	// 1, byte 0x05).
	blob := []byte{0x00, 0x04, 0x2a, 0x00, 0x00, 0x00, 0x01, 0x05}

	var raw []byte

	methodDefBase := uint32(len(raw))
	raw = binary.LittleEndian.AppendUint32(raw, 0) // RVA
	raw = binary.LittleEndian.AppendUint16(raw, 0) // ImplFlags
	raw = binary.LittleEndian.AppendUint16(raw, 0) // Flags
	raw = binary.LittleEndian.AppendUint16(raw, 0) // Name
	raw = binary.LittleEndian.AppendUint16(raw, 0) // Signature (blob offset 0, empty)
	raw = binary.LittleEndian.AppendUint16(raw, 1) // ParamList

	paramBase := uint32(len(raw))
	raw = binary.LittleEndian.AppendUint16(raw, paramIn|paramHasFieldMarshal) // Flags ("a")
	raw = binary.LittleEndian.AppendUint16(raw, 1)                           // Sequence
	raw = binary.LittleEndian.AppendUint16(raw, 0)                           // Name
	raw = binary.LittleEndian.AppendUint16(raw, paramOut|paramOptional|paramHasDefault) // Flags ("b")
	raw = binary.LittleEndian.AppendUint16(raw, 2)                           // Sequence
	raw = binary.LittleEndian.AppendUint16(raw, 0)                           // Name

	constantBase := uint32(len(raw))
	raw = binary.LittleEndian.AppendUint16(raw, 0)             // Type
	raw = binary.LittleEndian.AppendUint16(raw, uint16(2<<2|1)) // Parent: HasConstant tag 1 (Param), row 2
	raw = binary.LittleEndian.AppendUint16(raw, 1)             // Value: blob offset 1

	fieldMarshalBase := uint32(len(raw))
	raw = binary.LittleEndian.AppendUint16(raw, uint16(1<<1|1)) // Parent: HasFieldMarshal tag 1 (Param), row 1
	raw = binary.LittleEndian.AppendUint16(raw, 6)              // NativeType: blob offset 6

	db := &Database{
		raw:   newByteView(raw),
		blobs: blobHeap{v: newByteView(blob)},
		tables: map[TableID]tableLayout{
			TableMethodDef: {
				present: true, base: methodDefBase, rowSize: 14, rowCount: 1,
				columnOffsets: []uint32{0, 4, 6, 8, 10, 12},
				columnWidths:  []uint32{4, 2, 2, 2, 2, 2},
			},
			TableParam: {
				present: true, base: paramBase, rowSize: 6, rowCount: 2,
				columnOffsets: []uint32{0, 2, 4},
				columnWidths:  []uint32{2, 2, 2},
			},
			TableConstant: {
				present: true, base: constantBase, rowSize: 6, rowCount: 1,
				columnOffsets: []uint32{0, 2, 4},
				columnWidths:  []uint32{2, 2, 2},
			},
			TableFieldMarshal: {
				present: true, base: fieldMarshalBase, rowSize: 4, rowCount: 1,
				columnOffsets: []uint32{0, 2},
				columnWidths:  []uint32{2, 2},
			},
		},
	}

	method, err := db.MethodDef(1)
	if err != nil {
		t.Fatalf("MethodDef(1) fixture setup failed: %v", err)
	}
	return db, method
}

func TestParametersExposesFlagsDefaultAndMarshal(t *testing.T) {
	db, method := buildParametersFixture(t)
	sig := MethodSig{Params: []TypeSig{{Elem: ElemI4}, {Elem: ElemI4}}}

	views, err := Parameters(db, method, sig)
	if err != nil {
		t.Fatalf("Parameters failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("len(views) = %d, want 2", len(views))
	}

	a := views[0]
	if !a.In || a.Out || a.Optional || a.HasDefault {
		t.Errorf("param a flags = %+v, want only In set", a)
	}
	if !a.HasMarshal || len(a.Marshal.Bytes()) != 1 || a.Marshal.Bytes()[0] != 0x05 {
		t.Errorf("param a marshal = %+v, want HasMarshal with a single 0x05 byte", a)
	}

	b := views[1]
	if !b.Out || !b.Optional || b.In {
		t.Errorf("param b flags = %+v, want Out and Optional set, In clear", b)
	}
	if !b.HasDefault {
		t.Fatalf("param b HasDefault = false, want true")
	}
	if got := b.Default.Bytes(); len(got) != 4 || got[0] != 0x2a {
		t.Errorf("param b default value = %v, want [0x2a 0x00 0x00 0x00]", got)
	}
	if b.HasMarshal {
		t.Errorf("param b should not carry a marshal descriptor")
	}
}
