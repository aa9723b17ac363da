// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

import (
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Location is either a filesystem path or a borrowed byte range, per
// spec.md §6. Exactly one of Path/Bytes is set.
type Location struct {
	Path  string
	Bytes []byte
}

// PathLocation builds a filesystem-path Location.
func PathLocation(path string) Location { return Location{Path: path} }

// BytesLocation builds a borrowed-byte-range Location. The caller retains
// ownership; the slice must remain valid for the loader's lifetime.
func BytesLocation(b []byte) Location { return Location{Bytes: b} }

// key returns the canonical cache key the loader uses to dedup assemblies
// by location (spec.md §4.6 op 1: "canonicalise location to a string
// key"). Byte-range locations key off their base address rather than
// content, matching the identity-not-content semantics the loader needs.
func (l Location) key() string {
	if l.Path != "" {
		return "path:" + l.Path
	}
	if len(l.Bytes) == 0 {
		return "bytes:<empty>"
	}
	return fmt.Sprintf("bytes:%p:%d", &l.Bytes[0], len(l.Bytes))
}

// open resolves a Location to the raw bytes of the PE image, memory
// mapping a file path the way the teacher's File.New does and borrowing a
// byte-range Location verbatim.
func (l Location) open() ([]byte, func() error, error) {
	if l.Path == "" {
		return l.Bytes, func() error { return nil }, nil
	}
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	closer := func() error {
		data.Unmap()
		return f.Close()
	}
	return data, closer, nil
}

// ModuleLocator is the external collaborator spec.md §6 requires: given a
// canonical assembly name, a Windows-Runtime-style namespace, or a sibling
// module name, produce the Location it lives at.
type ModuleLocator interface {
	LocateAssembly(name AssemblyName) (Location, error)
	LocateNamespace(namespace string) (Location, error)
	LocateModule(requestingAssembly AssemblyName, moduleName string) (Location, error)
}

// LoaderConfiguration is the external collaborator spec.md §6 requires:
// which types the loader should pretend don't exist, and what namespace
// "System" projects to (Windows Runtime universes use "Platform").
type LoaderConfiguration interface {
	IsFilteredType(tok Token) bool
	SystemNamespace() string
}

// DefaultConfiguration is the zero-configuration LoaderConfiguration: no
// type is filtered, and the system namespace is the ECMA-335 default.
type DefaultConfiguration struct{}

// IsFilteredType always reports false: nothing is filtered by default.
func (DefaultConfiguration) IsFilteredType(Token) bool { return false }

// SystemNamespace returns "System".
func (DefaultConfiguration) SystemNamespace() string { return "System" }
