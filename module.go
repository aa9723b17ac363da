// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// ModuleContext owns one parsed database plus the per-module lookup
// structures spec.md §4.4 describes: a (namespace, name) type index and
// the four lock-free resolution caches.
type ModuleContext struct {
	location string
	db       *Database
	types    *TypeIndex
	caches   *resolutionCaches
	assembly *AssemblyContext
}

// newModuleContext parses db's TypeDef table into a TypeIndex (excluding
// whatever exclude reports) and wires up empty resolution caches.
func newModuleContext(location string, db *Database, exclude TypeExclusionFunc) (*ModuleContext, error) {
	types, err := buildTypeIndex(db, exclude)
	if err != nil {
		return nil, err
	}
	return &ModuleContext{
		location: location,
		db:       db,
		types:    types,
		caches:   newResolutionCaches(db),
	}, nil
}

// Location returns the canonical location string this module was loaded
// from.
func (m *ModuleContext) Location() string { return m.location }

// Database returns the module's parsed metadata database.
func (m *ModuleContext) Database() *Database { return m.db }

// Types returns the module's (namespace, name) type index.
func (m *ModuleContext) Types() *TypeIndex { return m.types }

// Assembly returns the assembly context that realized this module, or nil
// for the manifest module of an assembly still being constructed.
func (m *ModuleContext) Assembly() *AssemblyContext { return m.assembly }

// Name returns the module's own name from its single Module row.
func (m *ModuleContext) Name() (string, error) {
	row, err := m.db.Module()
	if err != nil {
		return "", err
	}
	return row.Name, nil
}
