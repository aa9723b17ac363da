// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import (
	"sync"
	"testing"
)

func TestModuleCacheCellSetOnce(t *testing.T) {
	var cell moduleCacheCell
	if _, ok := cell.load(); ok {
		t.Fatalf("expected an empty cell to report !ok")
	}

	first := &ModuleContext{location: "first"}
	second := &ModuleContext{location: "second"}

	won := cell.storeOnce(first)
	if won != first {
		t.Fatalf("first storeOnce should win the race and return itself")
	}

	lost := cell.storeOnce(second)
	if lost != first {
		t.Fatalf("second storeOnce should lose and return the already-published value")
	}

	got, ok := cell.load()
	if !ok || got != first {
		t.Fatalf("load() = (%v, %v), want (%v, true)", got, ok, first)
	}
}

func TestModuleCacheCellConcurrentStoreOnce(t *testing.T) {
	var cell moduleCacheCell
	const n = 32
	candidates := make([]*ModuleContext, n)
	for i := range candidates {
		candidates[i] = &ModuleContext{location: "candidate"}
	}

	var wg sync.WaitGroup
	results := make([]*ModuleContext, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cell.storeOnce(candidates[i])
		}(i)
	}
	wg.Wait()

	winner := results[0]
	for _, r := range results {
		if r != winner {
			t.Fatalf("concurrent storeOnce calls disagreed on the winner")
		}
	}
}

func TestTokenCacheCellSetOnce(t *testing.T) {
	var cell tokenCacheCell
	if _, ok := cell.load(); ok {
		t.Fatalf("expected an empty cell to report !ok")
	}

	dbA := &Database{}
	dbB := &Database{}
	first := Token{db: dbA, Table: TableTypeDef, Row: 3}
	second := Token{db: dbB, Table: TableTypeDef, Row: 9}

	won := cell.storeOnce(first)
	if !won.Equal(first) {
		t.Fatalf("first storeOnce should win and return itself")
	}

	lost := cell.storeOnce(second)
	if !lost.Equal(first) {
		t.Fatalf("second storeOnce should lose and return the already-published token")
	}

	got, ok := cell.load()
	if !ok || !got.Equal(first) {
		t.Fatalf("load() = (%+v, %v), want (%+v, true)", got, ok, first)
	}
}

func TestTokenCacheCellConcurrentStoreOnce(t *testing.T) {
	var cell tokenCacheCell
	const n = 32
	candidates := make([]Token, n)
	for i := range candidates {
		candidates[i] = Token{db: &Database{}, Table: TableTypeDef, Row: uint32(i + 1)}
	}

	var wg sync.WaitGroup
	results := make([]Token, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cell.storeOnce(candidates[i])
		}(i)
	}
	wg.Wait()

	winner := results[0]
	for _, r := range results {
		if !r.Equal(winner) {
			t.Fatalf("concurrent storeOnce calls disagreed on the winner")
		}
		if r.db != winner.db || r.Table != winner.Table || r.Row != winner.Row {
			t.Fatalf("torn token: got db=%p table=%v row=%d, want db=%p table=%v row=%d",
				r.db, r.Table, r.Row, winner.db, winner.Table, winner.Row)
		}
	}

	got, ok := cell.load()
	if !ok || !got.Equal(winner) {
		t.Fatalf("load() = (%+v, %v), want (%+v, true)", got, ok, winner)
	}
}

func TestResolutionCachesIndexedByRow(t *testing.T) {
	db := &Database{tables: map[TableID]tableLayout{
		TableAssemblyRef: {rowCount: 2},
		TableModuleRef:    {rowCount: 1},
		TableTypeRef:      {rowCount: 3},
		TableMemberRef:    {rowCount: 1},
	}}
	caches := newResolutionCaches(db)

	mod := &ModuleContext{location: "m"}
	caches.SetAssemblyRef(2, mod)
	if got, ok := caches.AssemblyRef(2); !ok || got != mod {
		t.Fatalf("AssemblyRef(2) = (%v, %v), want (%v, true)", got, ok, mod)
	}
	if _, ok := caches.AssemblyRef(1); ok {
		t.Fatalf("AssemblyRef(1) should still be unset")
	}

	tok := Token{db: db, Table: TableTypeDef, Row: 4}
	caches.SetTypeRef(3, tok)
	if got, ok := caches.TypeRef(3); !ok || !got.Equal(tok) {
		t.Fatalf("TypeRef(3) = (%+v, %v), want (%+v, true)", got, ok, tok)
	}
}
