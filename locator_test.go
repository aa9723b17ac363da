// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "testing"

func TestLocationKeyDistinguishesPathAndBytes(t *testing.T) {
	p := PathLocation("/tmp/foo.dll")
	b := BytesLocation([]byte{1, 2, 3})

	if p.key() == b.key() {
		t.Errorf("a path location and a byte location should never collide")
	}
	if p.key() != PathLocation("/tmp/foo.dll").key() {
		t.Errorf("identical paths should key identically")
	}
	if PathLocation("/tmp/foo.dll").key() == PathLocation("/tmp/bar.dll").key() {
		t.Errorf("different paths should key differently")
	}
}

func TestLocationKeyStableForSameSlice(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	loc := BytesLocation(buf)
	if loc.key() != loc.key() {
		t.Errorf("key() should be stable across repeated calls on the same Location")
	}
}

func TestLocationKeyEmptyBytes(t *testing.T) {
	loc := BytesLocation(nil)
	if loc.key() != "bytes:<empty>" {
		t.Errorf("key() for an empty byte location = %q, want %q", loc.key(), "bytes:<empty>")
	}
}

func TestDefaultConfiguration(t *testing.T) {
	cfg := DefaultConfiguration{}
	if cfg.IsFilteredType(Token{Table: TableTypeDef, Row: 1}) {
		t.Errorf("DefaultConfiguration should never filter a type")
	}
	if cfg.SystemNamespace() != "System" {
		t.Errorf("SystemNamespace() = %q, want System", cfg.SystemNamespace())
	}
}
