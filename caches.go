// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "sync/atomic"

// moduleCacheCell is a lock-free, set-once cell publishing a
// *ModuleContext, used by the AssemblyRef and ModuleRef caches (spec.md
// §4.4 describes these as publishing "a database pointer"; a module
// context is the practical unit of publication here since resolution
// needs the target's type index, not just its raw database). A single
// atomic pointer is enough publication: the ModuleContext it points to is
// immutable once built, so there are no sibling fields to order against.
type moduleCacheCell struct {
	p atomic.Pointer[ModuleContext]
}

func (c *moduleCacheCell) load() (*ModuleContext, bool) {
	mod := c.p.Load()
	return mod, mod != nil
}

// storeOnce publishes mod unless another writer already won the race; it
// never overwrites an existing entry, matching "entries are set once".
func (c *moduleCacheCell) storeOnce(mod *ModuleContext) *ModuleContext {
	if c.p.CompareAndSwap(nil, mod) {
		return mod
	}
	return c.p.Load()
}

// tokenCacheCell is a lock-free, set-once cell publishing a Token.
// Table, Row and db are bundled into a single immutable value published
// through one atomic pointer swap, so a racing loser can never observe a
// db from one writer paired with the Table/Row of another.
type tokenCacheCell struct {
	v atomic.Pointer[tokenCacheValue]
}

type tokenCacheValue struct {
	table TableID
	row   uint32
	db    *Database
}

func (c *tokenCacheCell) load() (Token, bool) {
	v := c.v.Load()
	if v == nil {
		return NullToken, false
	}
	return Token{db: v.db, Table: v.table, Row: v.row}, true
}

// storeOnce publishes tok unless another writer already won the race,
// returning whichever token ended up installed.
func (c *tokenCacheCell) storeOnce(tok Token) Token {
	v := &tokenCacheValue{table: tok.Table, row: tok.Row, db: tok.db}
	if c.v.CompareAndSwap(nil, v) {
		return tok
	}
	return c.mustLoad()
}

func (c *tokenCacheCell) mustLoad() Token {
	tok, _ := c.load()
	return tok
}

// resolutionCaches holds the four per-module caches spec.md §4.4
// describes, each indexed by the 1-based row number of its source table.
type resolutionCaches struct {
	assemblyRef []moduleCacheCell
	moduleRef   []moduleCacheCell
	typeRef     []tokenCacheCell
	memberRef   []tokenCacheCell
}

func newResolutionCaches(db *Database) *resolutionCaches {
	return &resolutionCaches{
		assemblyRef: make([]moduleCacheCell, db.RowCount(TableAssemblyRef)+1),
		moduleRef:   make([]moduleCacheCell, db.RowCount(TableModuleRef)+1),
		typeRef:     make([]tokenCacheCell, db.RowCount(TableTypeRef)+1),
		memberRef:   make([]tokenCacheCell, db.RowCount(TableMemberRef)+1),
	}
}

func (c *resolutionCaches) AssemblyRef(row uint32) (*ModuleContext, bool) {
	return c.assemblyRef[row].load()
}

func (c *resolutionCaches) SetAssemblyRef(row uint32, mod *ModuleContext) *ModuleContext {
	return c.assemblyRef[row].storeOnce(mod)
}

func (c *resolutionCaches) ModuleRef(row uint32) (*ModuleContext, bool) {
	return c.moduleRef[row].load()
}

func (c *resolutionCaches) SetModuleRef(row uint32, mod *ModuleContext) *ModuleContext {
	return c.moduleRef[row].storeOnce(mod)
}

func (c *resolutionCaches) TypeRef(row uint32) (Token, bool) {
	return c.typeRef[row].load()
}

func (c *resolutionCaches) SetTypeRef(row uint32, tok Token) Token {
	return c.typeRef[row].storeOnce(tok)
}

func (c *resolutionCaches) MemberRef(row uint32) (Token, bool) {
	return c.memberRef[row].load()
}

func (c *resolutionCaches) SetMemberRef(row uint32, tok Token) Token {
	return c.memberRef[row].storeOnce(tok)
}
