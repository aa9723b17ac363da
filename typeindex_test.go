// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "testing"

func newTestIndex() *TypeIndex {
	entries := []typeIndexEntry{
		{namespace: "", name: "Program", row: 1},
		{namespace: "System", name: "Int32", row: 2},
		{namespace: "System", name: "Object", row: 3},
		{namespace: "System.Collections", name: "ArrayList", row: 4},
	}
	return &TypeIndex{entries: entries}
}

func TestTypeIndexFind(t *testing.T) {
	idx := newTestIndex()

	row, ok := idx.Find("System", "Object")
	if !ok || row != 3 {
		t.Fatalf("Find(System, Object) = (%d, %v), want (3, true)", row, ok)
	}

	row, ok = idx.Find("", "Program")
	if !ok || row != 1 {
		t.Fatalf("Find(\"\", Program) = (%d, %v), want (1, true)", row, ok)
	}

	_, ok = idx.Find("System", "DoesNotExist")
	if ok {
		t.Fatalf("Find should report !ok for a missing name")
	}

	_, ok = idx.Find("Nonexistent.Namespace", "Object")
	if ok {
		t.Fatalf("Find should report !ok for a missing namespace")
	}
}

func TestTypeIndexNamespace(t *testing.T) {
	idx := newTestIndex()

	rows := idx.Namespace("System")
	if len(rows) != 2 || rows[0] != 2 || rows[1] != 3 {
		t.Fatalf("Namespace(System) = %v, want [2 3]", rows)
	}

	rows = idx.Namespace("System.Collections")
	if len(rows) != 1 || rows[0] != 4 {
		t.Fatalf("Namespace(System.Collections) = %v, want [4]", rows)
	}

	rows = idx.Namespace("NoSuchNamespace")
	if rows != nil {
		t.Fatalf("Namespace(NoSuchNamespace) = %v, want nil", rows)
	}
}

func TestTypeIndexLen(t *testing.T) {
	idx := newTestIndex()
	if idx.Len() != 4 {
		t.Errorf("Len() = %d, want 4", idx.Len())
	}
}
