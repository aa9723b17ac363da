// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "sort"

// typeIndexEntry is one (namespace, name) -> TypeDef row mapping.
type typeIndexEntry struct {
	namespace string
	name      string
	row       uint32
}

// TypeIndex is a module's (namespace, simple-name) -> TypeDef index,
// spec.md §4.4: sorted to support point lookup by binary search and
// namespace-range queries by equal-range on the namespace alone.
type TypeIndex struct {
	entries []typeIndexEntry
}

// TypeExclusionFunc reports whether a type should be invisible to lookup
// and enumeration, per the loader's configuration (spec.md §4.4: "types
// filtered by the loader's configuration are excluded at index-build
// time").
type TypeExclusionFunc func(tok Token) bool

// buildTypeIndex scans every TypeDef row of db and returns the sorted
// index, skipping rows exclude reports true for.
func buildTypeIndex(db *Database, exclude TypeExclusionFunc) (*TypeIndex, error) {
	n := db.RowCount(TableTypeDef)
	entries := make([]typeIndexEntry, 0, n)
	for row := uint32(1); row <= n; row++ {
		td, err := db.TypeDef(row)
		if err != nil {
			return nil, err
		}
		if exclude != nil && exclude(td.Token) {
			continue
		}
		entries = append(entries, typeIndexEntry{namespace: td.TypeNamespace, name: td.TypeName, row: row})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].namespace != entries[j].namespace {
			return entries[i].namespace < entries[j].namespace
		}
		return entries[i].name < entries[j].name
	})
	return &TypeIndex{entries: entries}, nil
}

// Find looks up a single (namespace, name) pair, returning the TypeDef row
// and whether it was present.
func (idx *TypeIndex) Find(namespace, name string) (row uint32, ok bool) {
	i := sort.Search(len(idx.entries), func(i int) bool {
		e := idx.entries[i]
		if e.namespace != namespace {
			return e.namespace >= namespace
		}
		return e.name >= name
	})
	if i < len(idx.entries) && idx.entries[i].namespace == namespace && idx.entries[i].name == name {
		return idx.entries[i].row, true
	}
	return 0, false
}

// Namespace returns every TypeDef row filed under the given namespace, in
// name order.
func (idx *TypeIndex) Namespace(namespace string) []uint32 {
	lo := sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].namespace >= namespace })
	hi := sort.Search(len(idx.entries), func(i int) bool { return idx.entries[i].namespace > namespace })
	if lo >= hi {
		return nil
	}
	rows := make([]uint32, hi-lo)
	for i, e := range idx.entries[lo:hi] {
		rows[i] = e.row
	}
	return rows
}

// Len returns the number of indexed types.
func (idx *TypeIndex) Len() int { return len(idx.entries) }
