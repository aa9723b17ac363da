// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "strings"

// BindingFlags selects which members a query surface returns, per
// spec.md §4.10.
type BindingFlags uint8

// The binding-flags bits.
const (
	BindInstance BindingFlags = 1 << iota
	BindStatic
	BindPublic
	BindNonPublic
	BindDeclaredOnly
	BindFlattenHierarchy
	BindInternalOnlyConstructor
)

// Has reports whether f includes every bit of mask.
func (f BindingFlags) Has(mask BindingFlags) bool { return f&mask == mask }

// QueryFields filters a field membership table by flags, per spec.md
// §4.10's five exclusion rules.
func QueryFields(t *MembershipTable, owner Token, flags BindingFlags) []FieldEntry {
	out := make([]FieldEntry, 0, len(t.Fields))
	for _, f := range t.Fields {
		inherited := !f.DeclaringType.Equal(owner)
		if excludeByStatic(f.Static, flags) {
			continue
		}
		if excludeByAccess(f.Access == fieldAccessPublic, flags) {
			continue
		}
		if inherited && flags.Has(BindDeclaredOnly) {
			continue
		}
		if inherited && f.Static && !flags.Has(BindFlattenHierarchy) {
			continue
		}
		if inherited && f.Access == fieldAccessPrivate && !strings.Contains(f.Name, ".") {
			continue
		}
		out = append(out, f)
	}
	return out
}

// QueryMethods filters a method membership table by flags, separating
// constructors (name ".ctor"/".cctor", the MethodDef SpecialName
// convention) from ordinary methods per BindInternalOnlyConstructor.
func QueryMethods(t *MembershipTable, owner Token, flags BindingFlags) []MethodEntry {
	out := make([]MethodEntry, 0, len(t.Methods))
	for _, m := range t.Methods {
		isCtor := m.Name == ".ctor" || m.Name == ".cctor"
		if flags.Has(BindInternalOnlyConstructor) != isCtor {
			continue
		}
		inherited := !m.DeclaringType.Equal(owner)
		if excludeByStatic(m.Static, flags) {
			continue
		}
		if excludeByAccess(m.Access == methodAccessPublic, flags) {
			continue
		}
		if inherited && flags.Has(BindDeclaredOnly) {
			continue
		}
		if inherited && m.Static && !flags.Has(BindFlattenHierarchy) {
			continue
		}
		if inherited && m.Access == methodAccessPrivate && !strings.Contains(m.Name, ".") {
			continue
		}
		out = append(out, m)
	}
	return out
}

// QueryEvents filters an event membership table by flags. Events have no
// static/accessibility bits of their own; the caller supplies both through
// isStatic and isPublic, typically from the add/remove accessor that
// MethodSemantics points to (see ResolveAccessor).
func QueryEvents(t *MembershipTable, owner Token, flags BindingFlags, isStatic, isPublic func(EventEntry) bool) []EventEntry {
	out := make([]EventEntry, 0, len(t.Events))
	for _, e := range t.Events {
		inherited := !e.DeclaringType.Equal(owner)
		if excludeByStatic(isStatic(e), flags) {
			continue
		}
		if excludeByAccess(isPublic(e), flags) {
			continue
		}
		if inherited && flags.Has(BindDeclaredOnly) {
			continue
		}
		if inherited && isStatic(e) && !flags.Has(BindFlattenHierarchy) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// QueryProperties filters a property membership table by flags, the same
// way QueryEvents does for properties' get/set accessors.
func QueryProperties(t *MembershipTable, owner Token, flags BindingFlags, isStatic, isPublic func(PropertyEntry) bool) []PropertyEntry {
	out := make([]PropertyEntry, 0, len(t.Properties))
	for _, p := range t.Properties {
		inherited := !p.DeclaringType.Equal(owner)
		if excludeByStatic(isStatic(p), flags) {
			continue
		}
		if excludeByAccess(isPublic(p), flags) {
			continue
		}
		if inherited && flags.Has(BindDeclaredOnly) {
			continue
		}
		if inherited && isStatic(p) && !flags.Has(BindFlattenHierarchy) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func excludeByStatic(static bool, flags BindingFlags) bool {
	if static {
		return !flags.Has(BindStatic)
	}
	return !flags.Has(BindInstance)
}

func excludeByAccess(public bool, flags BindingFlags) bool {
	if public {
		return !flags.Has(BindPublic)
	}
	return !flags.Has(BindNonPublic)
}

// ResolveAccessor finds the MethodDef token a MethodSemantics entry of
// the given kind associates with an Event or Property token.
func ResolveAccessor(db *Database, association Token, semantics uint16) (Token, bool) {
	n := db.RowCount(TableMethodSemantics)
	for row := uint32(1); row <= n; row++ {
		ms, err := db.MethodSemantics(row)
		if err != nil {
			continue
		}
		if ms.Association.Equal(association) && ms.Semantics == semantics {
			return ms.Method, true
		}
	}
	return NullToken, false
}

// ParamAttributes bits (ECMA-335 §II.23.1.13).
const (
	paramIn              uint16 = 0x0001
	paramOut             uint16 = 0x0002
	paramOptional        uint16 = 0x0010
	paramHasDefault      uint16 = 0x1000
	paramHasFieldMarshal uint16 = 0x2000
)

// ParameterView describes one formal parameter, pairing its Param-table
// metadata (name, attributes, optional default value, optional marshaling
// descriptor) with its signature type, exposed via Parameters.
type ParameterView struct {
	Name       string
	Sequence   uint16
	Type       TypeSig
	In         bool
	Out        bool
	Optional   bool
	HasDefault bool
	Default    Blob // valid only when HasDefault
	HasMarshal bool
	Marshal    Blob // valid only when HasMarshal
}

// Parameters renders a method's parameter list as a sequence of named,
// typed views, pairing the MethodDef's Param rows with its decoded
// signature parameter types (the Param table is sparse: not every formal
// parameter has a row, so names and attributes default to zero values) and
// with any Constant/FieldMarshal rows attached to those Param rows.
func Parameters(db *Database, method MethodDefRow, sig MethodSig) ([]ParameterView, error) {
	rows := make(map[uint16]ParamRow)
	first, last := ownedRange(db, TableMethodDef, method.Token.Row, func(r uint32) (uint32, error) {
		md, err := db.MethodDef(r)
		return md.ParamList.Row, err
	}, db.RowCount(TableParam)+1)
	for row := first; row < last; row++ {
		p, err := db.Param(row)
		if err != nil {
			return nil, err
		}
		if p.Sequence == 0 {
			continue // the return-value pseudo-parameter
		}
		rows[p.Sequence] = p
	}

	views := make([]ParameterView, len(sig.Params))
	for i, t := range sig.Params {
		seq := uint16(i + 1)
		view := ParameterView{Sequence: seq, Type: t}

		if p, ok := rows[seq]; ok {
			view.Name = p.Name
			view.In = p.Flags&paramIn != 0
			view.Out = p.Flags&paramOut != 0
			view.Optional = p.Flags&paramOptional != 0

			if p.Flags&paramHasDefault != 0 {
				if c, ok, err := findConstant(db, p.Token); err != nil {
					return nil, err
				} else if ok {
					view.HasDefault = true
					view.Default = c.Value
				}
			}
			if p.Flags&paramHasFieldMarshal != 0 {
				if fm, ok, err := findFieldMarshal(db, p.Token); err != nil {
					return nil, err
				} else if ok {
					view.HasMarshal = true
					view.Marshal = fm.NativeType
				}
			}
		}

		views[i] = view
	}
	return views, nil
}

// findConstant scans the Constant table (0x0b) for the row whose Parent
// (a HasConstant coded index over Field/Param/Property) matches owner.
func findConstant(db *Database, owner Token) (ConstantRow, bool, error) {
	n := db.RowCount(TableConstant)
	for row := uint32(1); row <= n; row++ {
		c, err := db.Constant(row)
		if err != nil {
			return ConstantRow{}, false, err
		}
		if c.Parent.Equal(owner) {
			return c, true, nil
		}
	}
	return ConstantRow{}, false, nil
}

// findFieldMarshal scans the FieldMarshal table (0x0d) for the row whose
// Parent (a HasFieldMarshal coded index over Field/Param) matches owner.
func findFieldMarshal(db *Database, owner Token) (FieldMarshalRow, bool, error) {
	n := db.RowCount(TableFieldMarshal)
	for row := uint32(1); row <= n; row++ {
		fm, err := db.FieldMarshal(row)
		if err != nil {
			return FieldMarshalRow{}, false, err
		}
		if fm.Parent.Equal(owner) {
			return fm, true, nil
		}
	}
	return FieldMarshalRow{}, false, nil
}
