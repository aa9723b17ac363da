// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import (
	"os"
	"sync"

	"github.com/saferwall/clrmeta/log"
)

// fundamentalTypeNames maps the primitive/builtin element types to their
// simple names in the system namespace, spec.md §4.6 op 4.
var fundamentalTypeNames = map[ElementType]string{
	ElemVoid:       "Void",
	ElemBoolean:    "Boolean",
	ElemChar:       "Char",
	ElemI1:         "SByte",
	ElemU1:         "Byte",
	ElemI2:         "Int16",
	ElemU2:         "UInt16",
	ElemI4:         "Int32",
	ElemU4:         "UInt32",
	ElemI8:         "Int64",
	ElemU8:         "UInt64",
	ElemR4:         "Single",
	ElemR8:         "Double",
	ElemString:     "String",
	ElemI:          "IntPtr",
	ElemU:          "UIntPtr",
	ElemObject:     "Object",
	ElemTypedByRef: "TypedReference",
}

// Loader is the single owner of the universe of loaded assemblies, spec.md
// §4.6. Everything it guards (the assembly set, the namespace map, the
// system-assembly designation) is protected by one recursive-in-spirit
// master lock: every public method takes it up front and every private
// "Locked" helper assumes it is already held, so a public method can call
// another private helper without re-entering the mutex.
type Loader struct {
	mu       sync.Mutex
	locator  ModuleLocator
	config   LoaderConfiguration
	byLoc    map[string]*AssemblyContext
	byNS     map[string]*ModuleContext
	moduleOf   map[*Database]*ModuleContext
	system     *AssemblyContext
	fundTok    map[ElementType]Token
	arrayTok   *Token
	valTok     *Token
	membership map[Token]*MembershipTable
	logger     *log.Helper
}

// LoaderOptions configures a Loader. Logger defaults to a stderr logger
// filtered to LevelError when left nil, the same default file.go's
// Options.Logger falls back to.
type LoaderOptions struct {
	Logger log.Logger
}

// NewLoader constructs an empty loader using the given module locator and
// loader configuration. A nil config uses DefaultConfiguration.
func NewLoader(locator ModuleLocator, config LoaderConfiguration) *Loader {
	return NewLoaderWithOptions(locator, config, nil)
}

// NewLoaderWithOptions is NewLoader with explicit LoaderOptions (currently
// just the diagnostic Logger).
func NewLoaderWithOptions(locator ModuleLocator, config LoaderConfiguration, opts *LoaderOptions) *Loader {
	if config == nil {
		config = DefaultConfiguration{}
	}

	var logger log.Logger
	if opts != nil && opts.Logger != nil {
		logger = opts.Logger
	} else {
		logger = log.NewFilter(log.NewStdLogger(os.Stderr), log.FilterLevel(log.LevelError))
	}

	return &Loader{
		locator:    locator,
		config:     config,
		byLoc:      make(map[string]*AssemblyContext),
		byNS:       make(map[string]*ModuleContext),
		moduleOf:   make(map[*Database]*ModuleContext),
		fundTok:    make(map[ElementType]Token),
		membership: make(map[Token]*MembershipTable),
		logger:     log.NewHelper(logger),
	}
}

// GetOrLoadAssembly realizes (or returns the cached) assembly at loc.
func (l *Loader) GetOrLoadAssembly(loc Location) (*AssemblyContext, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getOrLoadAssemblyLocked(loc)
}

// GetOrLoadAssemblyByName resolves name via the module locator, then
// delegates to GetOrLoadAssembly.
func (l *Loader) GetOrLoadAssemblyByName(name AssemblyName) (*AssemblyContext, error) {
	loc, err := l.locator.LocateAssembly(name)
	if err != nil {
		return nil, ErrUnresolvedReference
	}
	return l.GetOrLoadAssembly(loc)
}

func (l *Loader) getOrLoadAssemblyLocked(loc Location) (*AssemblyContext, error) {
	key := loc.key()
	if ac, ok := l.byLoc[key]; ok {
		return ac, nil
	}

	mod, err := l.loadModuleLocked(loc)
	if err != nil {
		return nil, err
	}

	ac := newAssemblyContext(l, mod)
	l.byLoc[key] = ac

	if l.system == nil && mod.Database().RowCount(TableAssemblyRef) == 0 {
		l.system = ac
	}

	return ac, nil
}

// loadModule opens loc, parses its metadata, and wraps it in a
// ModuleContext. It takes the master lock because buildTypeIndex consults
// the loader's filter configuration.
func (l *Loader) loadModule(loc Location) (*ModuleContext, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadModuleLocked(loc)
}

func (l *Loader) loadModuleLocked(loc Location) (*ModuleContext, error) {
	// The mapping is never released: the Database built below refers into
	// image for as long as the loader lives.
	image, _, err := loc.open()
	if err != nil {
		l.logger.Errorf("opening module %s: %v", loc.key(), err)
		return nil, err
	}

	root, err := locateCLIMetadata(image)
	if err != nil {
		l.logger.Errorf("locating CLI metadata in %s: %v", loc.key(), err)
		return nil, err
	}
	db, err := OpenDatabase(root)
	if err != nil {
		l.logger.Errorf("opening metadata database for %s: %v", loc.key(), err)
		return nil, err
	}
	mod, err := newModuleContext(loc.key(), db, l.config.IsFilteredType)
	if err != nil {
		l.logger.Errorf("building module context for %s: %v", loc.key(), err)
		return nil, err
	}
	l.logger.Debugf("loaded module %s", loc.key())
	l.moduleOf[db] = mod
	return mod, nil
}

// SystemAssembly returns the assembly designated as the system assembly
// (the first one loaded with zero AssemblyRef rows), or nil if none has
// been designated yet.
func (l *Loader) SystemAssembly() *AssemblyContext {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.system
}

// ResolveTypeRef implements spec.md §4.6 op 3: resolve a TypeRef row to
// the TypeDef token it names, consulting (and populating) the owning
// module's TypeRef cache.
func (l *Loader) ResolveTypeRef(mod *ModuleContext, row uint32) (Token, error) {
	if cached, ok := mod.caches.TypeRef(row); ok {
		return cached, nil
	}

	ref, err := mod.db.TypeRef(row)
	if err != nil {
		return NullToken, err
	}

	target, err := l.resolveTypeRefScope(mod, ref.ResolutionScope)
	if err != nil {
		return NullToken, err
	}

	namespace := ref.TypeNamespace
	if namespace == "System" {
		namespace = l.config.SystemNamespace()
	}

	typeRow, ok := target.Types().Find(namespace, ref.TypeName)
	if ref.ResolutionScope.Table == TableTypeRef {
		// A nested type is the NestedClass child of the (already resolved
		// and cached) enclosing type whose simple name matches.
		enclosing, _ := l.ResolveTypeRef(mod, ref.ResolutionScope.Row)
		tdb := target.Database()
		typeRow, ok = 0, false
		for i := uint32(1); i <= tdb.RowCount(TableNestedClass) && !ok; i++ {
			nc, err := tdb.NestedClass(i)
			if err != nil || nc.EnclosingClass.Row != enclosing.Row {
				continue
			}
			if td, err := tdb.TypeDef(nc.NestedClass.Row); err == nil && td.TypeName == ref.TypeName {
				typeRow, ok = nc.NestedClass.Row, true
			}
		}
	}
	if !ok {
		return NullToken, ErrUnresolvedReference
	}
	tok, err := target.Database().Token(TableTypeDef, typeRow)
	if err != nil {
		return NullToken, err
	}
	return mod.caches.SetTypeRef(row, tok), nil
}

// resolveTypeRefScope dispatches on the TypeRef's ResolutionScope coded
// index to the module the referenced type actually lives in.
func (l *Loader) resolveTypeRefScope(mod *ModuleContext, scope Token) (*ModuleContext, error) {
	if scope.IsNull() {
		return nil, ErrUnresolvedReference // exported-type search not wired to a module
	}
	switch scope.Table {
	case TableModule:
		return mod, nil

	case TableModuleRef:
		return l.resolveModuleRef(mod, scope.Row)

	case TableAssemblyRef:
		return l.resolveAssemblyRefModule(mod, scope.Row)

	case TableTypeRef:
		// Nested-type resolution: the enclosing TypeRef resolves to a
		// TypeDef token; the nested child lives in that same database's
		// module, found by name via the NestedClass table.
		enclosing, err := l.ResolveTypeRef(mod, scope.Row)
		if err != nil {
			return nil, err
		}
		if mod2, ok := l.moduleOf[enclosing.Database()]; ok {
			return mod2, nil
		}
		return nil, ErrUnresolvedReference

	default:
		return nil, ErrUnresolvedReference
	}
}

func (l *Loader) resolveModuleRef(mod *ModuleContext, row uint32) (*ModuleContext, error) {
	if cached, ok := mod.caches.ModuleRef(row); ok {
		return cached, nil
	}
	ref, err := mod.db.ModuleRef(row)
	if err != nil {
		return nil, err
	}
	if mod.assembly == nil {
		return nil, ErrUnresolvedReference
	}
	siblings, err := mod.assembly.Modules()
	if err != nil {
		return nil, err
	}
	for _, sib := range siblings {
		name, err := sib.Name()
		if err != nil {
			continue
		}
		if name == ref.Name {
			return mod.caches.SetModuleRef(row, sib), nil
		}
	}
	return nil, ErrUnresolvedReference
}

func (l *Loader) resolveAssemblyRefModule(mod *ModuleContext, row uint32) (*ModuleContext, error) {
	if cached, ok := mod.caches.AssemblyRef(row); ok {
		return cached, nil
	}
	ref, err := mod.db.AssemblyRef(row)
	if err != nil {
		return nil, err
	}
	name := AssemblyName{
		Name:           ref.Name,
		MajorVersion:   ref.MajorVersion,
		MinorVersion:   ref.MinorVersion,
		BuildNumber:    ref.BuildNumber,
		RevisionNumber: ref.RevisionNumber,
		Culture:        ref.Culture,
		Flags:          ref.Flags,
	}
	ac, err := l.GetOrLoadAssemblyByName(name)
	if err != nil {
		return nil, err
	}
	return mod.caches.SetAssemblyRef(row, ac.ManifestModule()), nil
}

// ResolveNamespace implements spec.md §4.6 op 5: locate and load the
// module that realizes a Windows-Runtime-projected namespace, memoizing
// by namespace string.
func (l *Loader) ResolveNamespace(namespace string) (*ModuleContext, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if mod, ok := l.byNS[namespace]; ok {
		return mod, nil
	}
	loc, err := l.locator.LocateNamespace(namespace)
	if err != nil {
		return nil, ErrUnresolvedReference
	}
	mod, err := l.loadModuleLocked(loc)
	if err != nil {
		return nil, err
	}
	l.byNS[namespace] = mod
	return mod, nil
}

// ResolveFundamentalType implements spec.md §4.6 op 4: map a primitive
// element type to its TypeDef token in the system module, memoized in a
// fixed map keyed by element type.
func (l *Loader) ResolveFundamentalType(et ElementType) (Token, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tok, ok := l.fundTok[et]; ok {
		return tok, nil
	}
	name, ok := fundamentalTypeNames[et]
	if !ok {
		return NullToken, ErrLogicViolation
	}
	tok, err := l.resolveSystemTypeLocked(name)
	if err != nil {
		return NullToken, err
	}
	l.fundTok[et] = tok
	return tok, nil
}

// ResolveArrayType resolves the system "Array" type, used by the
// membership engine as the base of every array type (spec.md §4.8 step 1).
func (l *Loader) ResolveArrayType() (Token, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.arrayTok != nil {
		return *l.arrayTok, nil
	}
	tok, err := l.resolveSystemTypeLocked("Array")
	if err != nil {
		return NullToken, err
	}
	l.arrayTok = &tok
	return tok, nil
}

// ResolveValueTypeBase resolves the system "ValueType" type, used as the
// generic-parameter constraint base for a non-nullable value-type
// constraint (spec.md §4.8 step 6).
func (l *Loader) ResolveValueTypeBase() (Token, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.valTok != nil {
		return *l.valTok, nil
	}
	tok, err := l.resolveSystemTypeLocked("ValueType")
	if err != nil {
		return NullToken, err
	}
	l.valTok = &tok
	return tok, nil
}

func (l *Loader) resolveSystemTypeLocked(name string) (Token, error) {
	if l.system == nil {
		return NullToken, ErrUnresolvedReference
	}
	mod := l.system.ManifestModule()
	row, ok := mod.Types().Find(l.config.SystemNamespace(), name)
	if !ok {
		return NullToken, ErrUnresolvedReference
	}
	return mod.Database().Token(TableTypeDef, row)
}

// ResolveMemberRef implements spec.md §4.6 op 6: resolve a MemberRef's
// parent to a type def, then find the field or method whose name and
// signature match.
func (l *Loader) ResolveMemberRef(mod *ModuleContext, row uint32) (Token, error) {
	if cached, ok := mod.caches.MemberRef(row); ok {
		return cached, nil
	}

	ref, err := mod.db.MemberRef(row)
	if err != nil {
		return NullToken, err
	}

	parent, err := l.resolveTypeDefOf(mod, ref.Class)
	if err != nil {
		return NullToken, err
	}

	tok, err := l.findMemberByNameAndSignature(parent, ref.Name, ref.Signature)
	if err != nil {
		return NullToken, err
	}
	return mod.caches.SetMemberRef(row, tok), nil
}

// resolveTypeDefOf resolves a MemberRef's "class" coded index to the token
// whose members are searched: a TypeDef token for a TypeDef, TypeRef, or
// TypeSpec parent, and the target module's Module token for a ModuleRef
// parent. Any other parent (a MethodDef) yields ErrUnresolvedReference.
func (l *Loader) resolveTypeDefOf(mod *ModuleContext, class Token) (Token, error) {
	switch class.Table {
	case TableTypeDef:
		return class, nil
	case TableTypeRef:
		return l.ResolveTypeRef(mod, class.Row)
	case TableModuleRef:
		target, err := l.resolveModuleRef(mod, class.Row)
		if err != nil {
			return NullToken, err
		}
		return target.Database().Token(TableModule, 1)
	case TableTypeSpec:
		spec, err := mod.db.TypeSpec(class.Row)
		if err != nil {
			return NullToken, err
		}
		sig, err := decodeTypeSig(newCursor(spec.Signature.Bytes()), mod.db)
		if err != nil {
			return NullToken, err
		}
		if sig.Elem == ElemGenericInst {
			return l.resolveTypeDefOf(mod, sig.GenericType.TypeToken)
		}
		return l.resolveTypeDefOf(mod, sig.TypeToken)
	default:
		return NullToken, ErrUnresolvedReference
	}
}

// findMemberByNameAndSignature scans parent's field and method rows for a
// unique name+signature match, per spec.md §4.6 op 6.
func (l *Loader) findMemberByNameAndSignature(parent Token, name string, sigBlob Blob) (Token, error) {
	db := parent.Database()

	var match Token
	found := 0

	first, last := fieldRange(db, parent.Row)
	for row := first; row < last; row++ {
		f, err := db.Field(row)
		if err != nil {
			continue
		}
		if f.Name != name {
			continue
		}
		fsig, err := DecodeFieldSignature(sigBlob.db, sigBlob)
		if err != nil {
			continue
		}
		target, err := DecodeFieldSignature(db, f.Signature)
		if err != nil {
			continue
		}
		if compareFieldSig(fsig, target) {
			match = f.Token
			found++
		}
	}

	mfirst, mlast := methodRange(db, parent.Row)
	for row := mfirst; row < mlast; row++ {
		m, err := db.MethodDef(row)
		if err != nil {
			continue
		}
		if m.Name != name {
			continue
		}
		msig, err := DecodeMethodSignature(sigBlob.db, sigBlob)
		if err != nil {
			continue
		}
		target, err := DecodeMethodSignature(db, m.Signature)
		if err != nil {
			continue
		}
		if compareMethodSig(msig, target) {
			match = m.Token
			found++
		}
	}

	switch found {
	case 0:
		return NullToken, ErrUnresolvedReference
	case 1:
		return match, nil
	default:
		return NullToken, ErrAmbiguousMatch
	}
}

// fieldRange returns the [first,last) Field rows owned by TypeDef row
// parentRow, per the contiguous-range convention of ECMA-335 §II.22.37.
func fieldRange(db *Database, parentRow uint32) (first, last uint32) {
	return ownedRange(db, TableTypeDef, parentRow, func(r uint32) (uint32, error) {
		td, err := db.TypeDef(r)
		return td.FieldList.Row, err
	}, db.RowCount(TableField)+1)
}

// methodRange returns the [first,last) MethodDef rows owned by TypeDef row
// parentRow.
func methodRange(db *Database, parentRow uint32) (first, last uint32) {
	return ownedRange(db, TableTypeDef, parentRow, func(r uint32) (uint32, error) {
		td, err := db.TypeDef(r)
		return td.MethodList.Row, err
	}, db.RowCount(TableMethodDef)+1)
}

// ownedRange computes a contiguous child-row range the ECMA-335 tables
// encode via a "first owned row" column plus the next owner row's column
// (or the child table's row count, for the last owner).
func ownedRange(db *Database, ownerTable TableID, ownerRow uint32, firstOf func(uint32) (uint32, error), childRowCountPlusOne uint32) (first, last uint32) {
	first, err := firstOf(ownerRow)
	if err != nil || first == 0 {
		return 0, 0
	}
	ownerCount := db.RowCount(ownerTable)
	if ownerRow >= ownerCount {
		return first, childRowCountPlusOne
	}
	next, err := firstOf(ownerRow + 1)
	if err != nil || next == 0 {
		return first, childRowCountPlusOne
	}
	return first, next
}
