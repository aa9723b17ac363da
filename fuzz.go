// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// Fuzz exercises the full locate -> parse -> load -> resolve -> membership
// pipeline against an arbitrary byte slice, for use with go-fuzz (or any
// harness speaking its Fuzz(data []byte) int convention). It returns 1 when
// data parsed as a loadable .NET module, 0 otherwise (including every
// rejected or malformed input, which go-fuzz treats as "uninteresting").
// Errors from the membership and naming walks over its TypeDefs do not
// change the result.
func Fuzz(data []byte) int {
	root, err := locateCLIMetadata(data)
	if err != nil {
		return 0
	}
	db, err := OpenDatabase(root)
	if err != nil {
		return 0
	}

	loader := NewLoader(BytesLocator{Bytes: data}, nil)
	mod, err := loader.loadModule(BytesLocation(data))
	if err != nil {
		return 0
	}

	n := db.RowCount(TableTypeDef)
	for row := uint32(1); row <= n; row++ {
		tok, err := db.Token(TableTypeDef, row)
		if err != nil {
			continue
		}
		sig := TypeSig{Elem: ElemClass, TypeToken: tok}
		if _, err := loader.Membership(sig); err != nil {
			continue
		}
	}

	namer := NewTypeNamer(loader)
	for row := uint32(1); row <= n; row++ {
		tok, err := db.Token(TableTypeDef, row)
		if err != nil {
			continue
		}
		_, _ = namer.Name(tok, NameAssemblyQualified)
	}

	_ = mod
	return 1
}

// BytesLocator resolves every LocateAssembly/LocateModule/LocateNamespace
// call to the same fixed byte slice, used by Fuzz (and any other caller
// that already holds the full image in memory and has no real assembly
// graph to walk).
type BytesLocator struct {
	Bytes []byte
}

// LocateAssembly implements ModuleLocator.
func (b BytesLocator) LocateAssembly(AssemblyName) (Location, error) {
	return BytesLocation(b.Bytes), nil
}

// LocateNamespace implements ModuleLocator.
func (b BytesLocator) LocateNamespace(string) (Location, error) {
	return BytesLocation(b.Bytes), nil
}

// LocateModule implements ModuleLocator.
func (b BytesLocator) LocateModule(AssemblyName, string) (Location, error) {
	return BytesLocation(b.Bytes), nil
}
