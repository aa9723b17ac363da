// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "sort"

// MemberKind selects one of the five member tables the membership engine
// computes, per spec.md §4.8.
type MemberKind int

// The five member kinds a type's membership table tracks.
const (
	MemberField MemberKind = iota
	MemberMethod
	MemberEvent
	MemberProperty
	MemberInterface
)

// TypeDef flag bits this engine inspects (ECMA-335 §II.23.1.15).
const (
	typeVisibilityMask     uint32 = 0x00000007
	typeClassSemanticsMask uint32 = 0x00000020 // 0 = class, set = interface
)

// MethodDef flag bits this engine inspects (ECMA-335 §II.23.1.10).
const (
	methodAccessMask     uint16 = 0x0007
	methodAccessPrivate  uint16 = 0x0001
	methodAccessFamily   uint16 = 0x0004
	methodAccessPublic   uint16 = 0x0006
	methodStatic         uint16 = 0x0010
	methodFinal          uint16 = 0x0020
	methodVirtual        uint16 = 0x0040
	methodNewSlot        uint16 = 0x0100
)

// FieldAttributes flag bits this engine inspects (ECMA-335 §II.23.1.5).
const (
	fieldAccessMask    uint16 = 0x0007
	fieldAccessPrivate uint16 = 0x0001
	fieldAccessPublic  uint16 = 0x0006
	fieldStatic        uint16 = 0x0010
)

// FieldEntry is one field membership-table row.
type FieldEntry struct {
	Token         Token
	Name          string
	Signature     FieldSig
	DeclaringType Token
	Static        bool
	Access        uint16
}

// MethodEntry is one method membership-table row.
type MethodEntry struct {
	Token         Token
	Name          string
	Signature     MethodSig
	DeclaringType Token
	Static        bool
	Virtual       bool
	Final         bool
	NewSlot       bool
	Access        uint16
}

// EventEntry is one event membership-table row.
type EventEntry struct {
	Token         Token
	Name          string
	DeclaringType Token
}

// PropertyEntry is one property membership-table row.
type PropertyEntry struct {
	Token         Token
	Name          string
	DeclaringType Token
}

// InterfaceEntry is one interface membership-table row: Type is the
// interface's type token (for an interface given by a TypeSpec, the token
// read from its instantiated signature, which is not resolved further),
// Source is the InterfaceImpl or GenericParamConstraint row that
// contributed it.
type InterfaceEntry struct {
	Type          Token
	TypeSig       *TypeSig // set for every interface given by a TypeSpec
	DeclaringType Token
	Source        Token
}

// MembershipTable is the full set of member tables spec.md §4.8 computes
// for one (type, instantiation) pair.
type MembershipTable struct {
	Fields     []FieldEntry
	Methods    []MethodEntry
	Events     []EventEntry
	Properties []PropertyEntry
	Interfaces []InterfaceEntry

	inheritedFields     int
	inheritedMethods    int
	inheritedEvents     int
	inheritedProperties int
	inheritedInterfaces int
}

// Membership computes (or returns the cached) membership table for sig,
// per spec.md §4.8. The master loader lock guards the membership-storage
// map since computing a base type's table can reenter the loader to
// resolve TypeRefs in inherited signatures.
func (l *Loader) Membership(sig TypeSig) (*MembershipTable, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.membershipLocked(sig, nil)
}

func (l *Loader) membershipLocked(sig TypeSig, callerInst *Instantiator) (*MembershipTable, error) {
	typeDef, args, err := l.resolveMembershipInput(sig, callerInst)
	if err != nil {
		return nil, err
	}

	cacheable := len(args) == 0
	if cacheable {
		if t, ok := l.membership[typeDef]; ok {
			return t, nil
		}
	}

	inst := NewTypeInstantiator(typeDef, args)

	table := &MembershipTable{}

	db := typeDef.Database()
	td, err := db.TypeDef(typeDef.Row)
	if err != nil {
		return nil, err
	}

	if !td.Extends.IsNull() {
		baseSig, baseArgs, err := l.resolveExtends(typeDef, td.Extends, inst)
		if err != nil {
			return nil, err
		}
		baseTable, err := l.membershipLocked(baseSig, nil)
		_ = baseArgs
		if err != nil {
			return nil, err
		}
		l.inheritBase(table, baseTable, inst)
	}

	if err := l.enumerateFields(table, typeDef, td, inst); err != nil {
		return nil, err
	}
	if err := l.enumerateMethods(table, typeDef, td, inst); err != nil {
		return nil, err
	}
	if err := l.enumerateEvents(table, typeDef, inst); err != nil {
		return nil, err
	}
	if err := l.enumerateProperties(table, typeDef, inst); err != nil {
		return nil, err
	}
	if err := l.enumerateInterfaces(table, typeDef, inst); err != nil {
		return nil, err
	}

	if cacheable {
		l.membership[typeDef] = table
	}
	return table, nil
}

// resolveMembershipInput implements spec.md §4.8 step 1: reduce an
// arbitrary input signature to a (type-def, instantiation-args) pair.
func (l *Loader) resolveMembershipInput(sig TypeSig, callerInst *Instantiator) (Token, []TypeSig, error) {
	if callerInst != nil {
		sig = callerInst.Instantiate(sig)
	}

	switch sig.Elem {
	case ElemClass, ElemValueType:
		return l.resolveTypeToken(sig.TypeToken)

	case ElemGenericInst:
		base, _, err := l.resolveTypeToken(sig.GenericType.TypeToken)
		if err != nil {
			return NullToken, nil, err
		}
		return base, sig.Args, nil

	case ElemSZArray, ElemArray:
		tok, err := l.ResolveArrayType()
		return tok, nil, err

	case elemAnnotatedVar, elemAnnotatedMVar:
		return l.resolveVariableConstraintBase(sig)

	default:
		if _, ok := fundamentalTypeNames[sig.Elem]; ok {
			tok, err := l.ResolveFundamentalType(sig.Elem)
			return tok, nil, err
		}
		return NullToken, nil, ErrUnresolvedReference
	}
}

// resolveTypeToken follows a Class/ValueType token to a concrete TypeDef,
// resolving TypeRef indirection and recursing through TypeSpec signatures
// (e.g. an `extends` clause naming a generic instantiation).
func (l *Loader) resolveTypeToken(tok Token) (Token, []TypeSig, error) {
	switch tok.Table {
	case TableTypeDef:
		return tok, nil, nil
	case TableTypeRef:
		mod, ok := l.moduleOf[tok.Database()]
		if !ok {
			return NullToken, nil, ErrUnresolvedReference
		}
		resolved, err := l.ResolveTypeRef(mod, tok.Row)
		return resolved, nil, err
	case TableTypeSpec:
		db := tok.Database()
		spec, err := db.TypeSpec(tok.Row)
		if err != nil {
			return NullToken, nil, err
		}
		sig, err := decodeTypeSig(newCursor(spec.Signature.Bytes()), db)
		if err != nil {
			return NullToken, nil, err
		}
		if sig.Elem == ElemGenericInst {
			base, _, err := l.resolveTypeToken(sig.GenericType.TypeToken)
			return base, sig.Args, err
		}
		return l.resolveTypeToken(sig.TypeToken)
	default:
		return NullToken, nil, ErrUnresolvedReference
	}
}

// resolveVariableConstraintBase implements spec.md §4.8 step 6's base
// selection for a generic parameter: a non-interface class-constraint if
// present, else ValueType if the parameter carries the non-nullable-
// value-type constraint, else Object.
func (l *Loader) resolveVariableConstraintBase(sig TypeSig) (Token, []TypeSig, error) {
	if !sig.HasContext {
		return NullToken, nil, ErrUnresolvedReference
	}
	gpRow, err := l.findGenericParam(sig.Context, sig.Ordinal)
	if err != nil {
		return NullToken, nil, err
	}
	db := sig.Context.Database()
	gp, err := db.GenericParam(gpRow)
	if err != nil {
		return NullToken, nil, err
	}

	n := db.RowCount(TableGenericParamConstraint)
	for i := uint32(1); i <= n; i++ {
		gpc, err := db.GenericParamConstraint(i)
		if err != nil {
			continue
		}
		if gpc.Owner.Row != gpRow || gpc.Owner.Table != TableGenericParam {
			continue
		}
		base, _, err := l.resolveTypeToken(gpc.Constraint)
		if err != nil {
			continue
		}
		bd, err := base.Database().TypeDef(base.Row)
		if err != nil {
			continue
		}
		if bd.Flags&typeClassSemanticsMask == 0 {
			return base, nil, nil
		}
	}

	if gp.Flags&GenericParamNonNullableValueTypeConstraint != 0 {
		tok, err := l.ResolveValueTypeBase()
		return tok, nil, err
	}
	tok, err := l.resolveSystemTypeLocked("Object")
	return tok, nil, err
}

func (l *Loader) findGenericParam(owner Token, ordinal uint32) (uint32, error) {
	db := owner.Database()
	n := db.RowCount(TableGenericParam)
	for i := uint32(1); i <= n; i++ {
		gp, err := db.GenericParam(i)
		if err != nil {
			continue
		}
		if gp.Owner.Equal(owner) && uint32(gp.Number) == ordinal {
			return i, nil
		}
	}
	return 0, ErrUnresolvedReference
}

// resolveExtends decodes a type's `extends` token (possibly a TypeSpec
// naming a generic instantiation of the base), instantiating any vars it
// mentions with inst, and returns the resulting base signature.
func (l *Loader) resolveExtends(self Token, extends Token, inst *Instantiator) (TypeSig, []TypeSig, error) {
	switch extends.Table {
	case TableTypeDef, TableTypeRef:
		return TypeSig{Elem: ElemClass, TypeToken: extends}, nil, nil
	case TableTypeSpec:
		db := extends.Database()
		spec, err := db.TypeSpec(extends.Row)
		if err != nil {
			return TypeSig{}, nil, err
		}
		sig, err := decodeTypeSig(newCursor(spec.Signature.Bytes()), db)
		if err != nil {
			return TypeSig{}, nil, err
		}
		sig = inst.Instantiate(sig)
		if sig.Elem == ElemGenericInst {
			return sig, sig.Args, nil
		}
		return sig, nil, nil
	default:
		return TypeSig{}, nil, ErrUnresolvedReference
	}
}

// inheritBase implements spec.md §4.8 step 3: copy every base-table entry
// into the new table, re-instantiating signatures that mention variables.
func (l *Loader) inheritBase(table, base *MembershipTable, inst *Instantiator) {
	for _, f := range base.Fields {
		if inst.WouldInstantiate(f.Signature.Type) {
			f.Signature.Type = inst.Instantiate(f.Signature.Type)
		}
		table.Fields = append(table.Fields, f)
	}
	table.inheritedFields = len(table.Fields)

	for _, m := range base.Methods {
		if inst.WouldInstantiate(m.Signature.RetType) || methodMentionsVar(m.Signature, inst) {
			m.Signature = inst.instantiateMethod(m.Signature)
		}
		table.Methods = append(table.Methods, m)
	}
	table.inheritedMethods = len(table.Methods)

	table.Events = append(table.Events, base.Events...)
	table.inheritedEvents = len(table.Events)

	table.Properties = append(table.Properties, base.Properties...)
	table.inheritedProperties = len(table.Properties)

	for _, i := range base.Interfaces {
		if i.TypeSig != nil && inst.WouldInstantiate(*i.TypeSig) {
			instantiated := inst.Instantiate(*i.TypeSig)
			i.TypeSig = &instantiated
		}
		table.Interfaces = append(table.Interfaces, i)
	}
	table.inheritedInterfaces = len(table.Interfaces)
}

func methodMentionsVar(m MethodSig, inst *Instantiator) bool {
	for _, p := range m.Params {
		if inst.WouldInstantiate(p) {
			return true
		}
	}
	return false
}

func (l *Loader) enumerateFields(table *MembershipTable, typeDef Token, td TypeDefRow, inst *Instantiator) error {
	db := typeDef.Database()
	first, last := fieldRange(db, typeDef.Row)
	for row := first; row < last; row++ {
		f, err := db.Field(row)
		if err != nil {
			return err
		}
		sig, err := DecodeFieldSignature(db, f.Signature)
		if err != nil {
			return err
		}
		sig.Type = inst.Instantiate(sig.Type)
		table.Fields = append(table.Fields, FieldEntry{
			Token:         f.Token,
			Name:          f.Name,
			Signature:     sig,
			DeclaringType: typeDef,
			Static:        f.Flags&fieldStatic != 0,
			Access:        f.Flags & fieldAccessMask,
		})
	}
	return nil
}

func (l *Loader) enumerateEvents(table *MembershipTable, typeDef Token, inst *Instantiator) error {
	db := typeDef.Database()
	n := db.RowCount(TableEventMap)
	for i := uint32(1); i <= n; i++ {
		em, err := db.EventMap(i)
		if err != nil {
			return err
		}
		if em.Parent.Row != typeDef.Row {
			continue
		}
		first := em.EventList.Row
		last := db.RowCount(TableEvent) + 1
		if i < n {
			next, err := db.EventMap(i + 1)
			if err == nil && next.EventList.Row != 0 {
				last = next.EventList.Row
			}
		}
		for row := first; row < last; row++ {
			ev, err := db.Event(row)
			if err != nil {
				return err
			}
			table.Events = append(table.Events, EventEntry{Token: ev.Token, Name: ev.Name, DeclaringType: typeDef})
		}
	}
	return nil
}

func (l *Loader) enumerateProperties(table *MembershipTable, typeDef Token, inst *Instantiator) error {
	db := typeDef.Database()
	n := db.RowCount(TablePropertyMap)
	for i := uint32(1); i <= n; i++ {
		pm, err := db.PropertyMap(i)
		if err != nil {
			return err
		}
		if pm.Parent.Row != typeDef.Row {
			continue
		}
		first := pm.PropertyList.Row
		last := db.RowCount(TableProperty) + 1
		if i < n {
			next, err := db.PropertyMap(i + 1)
			if err == nil && next.PropertyList.Row != 0 {
				last = next.PropertyList.Row
			}
		}
		for row := first; row < last; row++ {
			p, err := db.Property(row)
			if err != nil {
				return err
			}
			table.Properties = append(table.Properties, PropertyEntry{Token: p.Token, Name: p.Name, DeclaringType: typeDef})
		}
	}
	return nil
}

func (l *Loader) enumerateInterfaces(table *MembershipTable, typeDef Token, inst *Instantiator) error {
	db := typeDef.Database()
	n := db.RowCount(TableInterfaceImpl)
	for row := uint32(1); row <= n; row++ {
		ii, err := db.InterfaceImpl(row)
		if err != nil {
			return err
		}
		if ii.Class.Row != typeDef.Row {
			continue
		}
		if err := l.insertInterface(table, typeDef, ii.Interface, ii.Token, inst); err != nil {
			return err
		}
	}
	return nil
}

// insertInterface implements spec.md §4.8 step 5's interface dedup rule
// and step 7's interface closure.
func (l *Loader) insertInterface(table *MembershipTable, declaring Token, iface Token, source Token, inst *Instantiator) error {
	var entry InterfaceEntry
	switch iface.Table {
	case TableTypeSpec:
		db := iface.Database()
		spec, err := db.TypeSpec(iface.Row)
		if err != nil {
			return err
		}
		sig, err := decodeTypeSig(newCursor(spec.Signature.Bytes()), db)
		if err != nil {
			return err
		}
		sig = inst.Instantiate(sig)
		entry = InterfaceEntry{TypeSig: &sig, DeclaringType: declaring, Source: source}
		if sig.Elem == ElemGenericInst {
			entry.Type = sig.GenericType.TypeToken
		} else {
			entry.Type = sig.TypeToken
		}
	default:
		resolved, _, err := l.resolveTypeToken(iface)
		if err != nil {
			return err
		}
		entry = InterfaceEntry{Type: resolved, DeclaringType: declaring, Source: source}
	}

	for i, existing := range table.Interfaces {
		if interfaceEntriesEqual(existing, entry) {
			table.Interfaces[i] = entry
			return nil
		}
	}
	table.Interfaces = append(table.Interfaces, entry)

	// Step 7: interface closure. Recurse into the newly-added interface's
	// own interfaces and merge them with the same dedup rule.
	baseSig := entry.TypeSig
	if baseSig == nil {
		baseSig = &TypeSig{Elem: ElemClass, TypeToken: entry.Type}
	}
	childTable, err := l.membershipLocked(*baseSig, nil)
	if err != nil {
		return nil // an unresolvable nested interface is dropped, not fatal
	}
	for _, childIface := range childTable.Interfaces {
		if err := l.mergeInterface(table, childIface, source); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) mergeInterface(table *MembershipTable, entry InterfaceEntry, source Token) error {
	entry.Source = source
	for i, existing := range table.Interfaces {
		if interfaceEntriesEqual(existing, entry) {
			table.Interfaces[i] = entry
			return nil
		}
	}
	table.Interfaces = append(table.Interfaces, entry)
	return nil
}

func interfaceEntriesEqual(a, b InterfaceEntry) bool {
	if a.TypeSig == nil && b.TypeSig == nil {
		return a.Type.Equal(b.Type)
	}
	if a.TypeSig == nil || b.TypeSig == nil {
		return false
	}
	return signaturesEqual(*a.TypeSig, *b.TypeSig)
}

// enumerateMethods implements declared-method enumeration plus the
// override-resolution rule of spec.md §4.8 ("method insertion").
func (l *Loader) enumerateMethods(table *MembershipTable, typeDef Token, td TypeDefRow, inst *Instantiator) error {
	db := typeDef.Database()
	overrides, err := l.methodImplOverrides(typeDef)
	if err != nil {
		return err
	}

	first, last := methodRange(db, typeDef.Row)
	for row := first; row < last; row++ {
		m, err := db.MethodDef(row)
		if err != nil {
			return err
		}
		sig, err := DecodeMethodSignature(db, m.Signature)
		if err != nil {
			return err
		}
		sig = inst.instantiateMethod(sig)

		entry := MethodEntry{
			Token:         m.Token,
			Name:          m.Name,
			Signature:     sig,
			DeclaringType: typeDef,
			Static:        m.Flags&methodStatic != 0,
			Virtual:       m.Flags&methodVirtual != 0,
			Final:         m.Flags&methodFinal != 0,
			NewSlot:       m.Flags&methodNewSlot != 0,
			Access:        m.Flags & methodAccessMask,
		}

		if entry.Static || entry.NewSlot {
			table.Methods = append(table.Methods, entry)
			continue
		}

		// A single overriding body may redirect more than one inherited
		// slot (e.g. several MethodImpl rows all pointing at it); every
		// matched slot must collapse into the one entry, not just the
		// first one found.
		var slotIdxs []int
		if targets, ok := overrides[m.Token]; ok {
			for _, target := range targets {
				for i := 0; i < table.inheritedMethods && i < len(table.Methods); i++ {
					if table.Methods[i].Token.Equal(target) {
						slotIdxs = append(slotIdxs, i)
						break
					}
				}
			}
		}

		sigIdx := -1
		sigMatches := 0
		for i := 0; i < table.inheritedMethods && i < len(table.Methods); i++ {
			cand := table.Methods[i]
			if !cand.Virtual || cand.Final {
				continue
			}
			if cand.Name != entry.Name {
				continue
			}
			if !methodSignaturesCompatible(cand.Signature, entry.Signature) {
				continue
			}
			sigIdx = i
			sigMatches++
		}
		if sigMatches > 1 {
			return ErrAmbiguousMatch
		}

		switch {
		case len(slotIdxs) == 0 && sigIdx < 0:
			table.Methods = append(table.Methods, entry)
		case len(slotIdxs) == 0 && sigIdx >= 0:
			table.Methods[sigIdx] = entry
		default:
			sort.Ints(slotIdxs)
			primary := slotIdxs[0]
			remove := map[int]bool{}
			for _, idx := range slotIdxs[1:] {
				remove[idx] = true
			}
			if sigIdx >= 0 && sigIdx != primary {
				remove[sigIdx] = true
			}
			table.Methods[primary] = entry

			var drop []int
			for idx := range remove {
				drop = append(drop, idx)
			}
			sort.Sort(sort.Reverse(sort.IntSlice(drop)))
			for _, idx := range drop {
				table.Methods = append(table.Methods[:idx], table.Methods[idx+1:]...)
				table.inheritedMethods--
			}
		}
	}
	return nil
}

// methodImplOverrides scans typeDef's MethodImpl rows, resolving both
// sides to concrete MethodDef tokens (chasing MemberRef indirection via
// ResolveMemberRef), and returns a body-token -> declaration-tokens map.
// A single overriding body can appear in more than one MethodImpl row
// (one row per base slot it redirects), so every declaration must be
// kept, not just the last one seen.
func (l *Loader) methodImplOverrides(typeDef Token) (map[Token][]Token, error) {
	db := typeDef.Database()
	mod, ok := l.moduleOf[db]
	if !ok {
		return nil, ErrUnresolvedReference
	}

	n := db.RowCount(TableMethodImpl)
	out := make(map[Token][]Token)
	for i := uint32(1); i <= n; i++ {
		mi, err := db.MethodImpl(i)
		if err != nil {
			return nil, err
		}
		if mi.Class.Row != typeDef.Row {
			continue
		}
		body, err := l.resolveMethodOrMemberRef(mod, mi.MethodBody)
		if err != nil {
			continue
		}
		decl, err := l.resolveMethodOrMemberRef(mod, mi.MethodDeclaration)
		if err != nil {
			continue
		}
		out[body] = append(out[body], decl)
	}
	return out, nil
}

func (l *Loader) resolveMethodOrMemberRef(mod *ModuleContext, tok Token) (Token, error) {
	switch tok.Table {
	case TableMethodDef:
		return tok, nil
	case TableMemberRef:
		return l.ResolveMemberRef(mod, tok.Row)
	default:
		return NullToken, ErrUnresolvedReference
	}
}
