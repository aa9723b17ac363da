// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "testing"

func TestNullTokenIsNull(t *testing.T) {
	if !NullToken.IsNull() {
		t.Errorf("NullToken.IsNull() = false, want true")
	}
	tok := newToken(nil, TableTypeDef, 1)
	if tok.IsNull() {
		t.Errorf("a row-1 token should not be null")
	}
}

func TestTokenEqual(t *testing.T) {
	dbA := &Database{}
	dbB := &Database{}

	a := newToken(dbA, TableTypeDef, 5)
	b := newToken(dbA, TableTypeDef, 5)
	c := newToken(dbA, TableTypeDef, 6)
	d := newToken(dbB, TableTypeDef, 5)

	if !a.Equal(b) {
		t.Errorf("expected equal tokens (same db, table, row)")
	}
	if a.Equal(c) {
		t.Errorf("expected different rows to be unequal")
	}
	if a.Equal(d) {
		t.Errorf("expected different databases to be unequal even with the same table/row")
	}
}

func TestTokenDatabaseAccessor(t *testing.T) {
	db := &Database{}
	tok := newToken(db, TableModule, 1)
	if tok.Database() != db {
		t.Errorf("Database() did not return the minting database")
	}
}
