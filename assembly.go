// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "sync"

// AssemblyName is the identity record spec.md §4.5 realizes lazily from
// an assembly's manifest Assembly row.
type AssemblyName struct {
	Name           string
	MajorVersion   uint16
	MinorVersion   uint16
	BuildNumber    uint16
	RevisionNumber uint16
	Culture        string
	PublicKey      []byte
	Flags          uint32
}

// AssemblyContext is initialized with a manifest module's location; its
// auxiliary modules and its name are both realized lazily, per spec.md
// §4.5.
type AssemblyContext struct {
	loader   *Loader
	manifest *ModuleContext

	modulesOnce sync.Once
	modules     []*ModuleContext
	modulesErr  error

	nameOnce sync.Once
	name     AssemblyName
	nameErr  error
}

func newAssemblyContext(loader *Loader, manifest *ModuleContext) *AssemblyContext {
	ac := &AssemblyContext{loader: loader, manifest: manifest}
	manifest.assembly = ac
	ac.modules = []*ModuleContext{manifest}
	return ac
}

// ManifestModule returns the assembly's manifest module.
func (a *AssemblyContext) ManifestModule() *ModuleContext { return a.manifest }

// Name realizes (once) and returns the assembly's identity record from its
// manifest module's Assembly row. The row must exist; an assembly whose
// manifest module lacks one is rejected per spec.md §4.5.
func (a *AssemblyContext) Name() (AssemblyName, error) {
	a.nameOnce.Do(func() {
		row, err := a.manifest.Database().Assembly()
		if err != nil {
			a.nameErr = ErrInvalidMetadata
			return
		}
		a.name = AssemblyName{
			Name:           row.Name,
			MajorVersion:   row.MajorVersion,
			MinorVersion:   row.MinorVersion,
			BuildNumber:    row.BuildNumber,
			RevisionNumber: row.RevisionNumber,
			Culture:        row.Culture,
			PublicKey:      row.PublicKey.Bytes(),
			Flags:          row.Flags,
		}
	})
	return a.name, a.nameErr
}

// Modules realizes (once) and returns every module of the assembly: the
// manifest module plus, for each File row not flagged
// FileContainsNoMetadata, the sibling module the loader's locator resolves
// it to.
func (a *AssemblyContext) Modules() ([]*ModuleContext, error) {
	a.modulesOnce.Do(func() {
		db := a.manifest.Database()
		n := db.RowCount(TableFile)
		name, err := a.Name()
		if err != nil {
			a.modulesErr = err
			return
		}
		for row := uint32(1); row <= n; row++ {
			file, err := db.File(row)
			if err != nil {
				a.modulesErr = err
				return
			}
			if file.Flags&FileContainsNoMetadata != 0 {
				continue
			}
			loc, err := a.loader.locator.LocateModule(name, file.Name)
			if err != nil {
				a.modulesErr = ErrUnresolvedReference
				return
			}
			mod, err := a.loader.loadModule(loc)
			if err != nil {
				a.modulesErr = err
				return
			}
			mod.assembly = a
			a.modules = append(a.modules, mod)
		}
	})
	return a.modules, a.modulesErr
}
