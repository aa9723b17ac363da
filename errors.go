// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import "errors"

// Sentinel errors grouped by the five kinds a caller can act on. Every
// error this package returns either is one of these values or wraps one of
// them with fmt.Errorf's %w, so callers can still errors.Is against the
// kind regardless of how much context was attached. The exception is an
// I/O error from opening or mapping a file Location, which is returned as
// the os or mmap call reported it.
var (
	// ErrInvalidPE reports a malformed PE structure: a bad DOS/NT signature,
	// a section count out of range, or an RVA that cannot be translated to
	// a file offset.
	ErrInvalidPE = errors.New("clrmeta: invalid PE image")

	// ErrInvalidMetadata reports a malformed CLI metadata root: a bad BSJB
	// magic, a missing "#~" stream, a duplicate stream name, a table id
	// outside the allowed set, a coded-index tag value out of range, or a
	// signature that is truncated mid-decode. Streams with unknown names
	// are skipped, not rejected.
	ErrInvalidMetadata = errors.New("clrmeta: invalid CLI metadata")

	// ErrUnresolvedReference reports that an AssemblyRef, ModuleRef,
	// TypeRef, or MemberRef could not be resolved: the referenced module
	// isn't locatable, or the referenced type/member isn't present in the
	// target scope.
	ErrUnresolvedReference = errors.New("clrmeta: unresolved reference")

	// ErrAmbiguousMatch reports that two candidates satisfied a lookup that
	// must be unique: two inherited methods both match a new method by
	// signature, or two member-ref candidates both match by name and
	// signature.
	ErrAmbiguousMatch = errors.New("clrmeta: ambiguous match")

	// ErrLogicViolation reports a caller error rather than a malformed
	// file: attempting to designate a second system assembly, or passing a
	// database across two unrelated loaders.
	ErrLogicViolation = errors.New("clrmeta: logic violation")

	// errOutsideBoundary is returned internally by the bounds-checked
	// readers; every caller translates it into one of the kinds above
	// with additional context (it is never returned bare to a consumer of
	// this package, unlike the teacher's ErrOutsideBoundary).
	errOutsideBoundary = errors.New("clrmeta: read outside image boundary")
)
