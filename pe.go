// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package clrmeta

// Image executable signatures. Only the ones needed to tell a genuine PE
// apart from its look-alikes are kept; this reader never parses NE/LE/LX/TE
// images, it only needs to recognize and reject them with a clear error.
const (
	// The DOS MZ executable format is the executable file format used
	// for .EXE files in DOS.
	imageDOSSignature   = 0x5A4D // MZ
	imageDOSZMSignature = 0x4D5A // ZM

	// The New Executable (NE) format, a 16-bit predecessor to PE.
	imageOS2Signature = 0x454E

	// Linear Executable (LE/LX) formats used by 32-bit OS/2 and VxD files.
	imageOS2LESignature = 0x454C
	imageVXDSignature   = 0x584C

	// Terse Executables have a 'VZ' signature.
	imageTESignature = 0x5A56

	// The Portable Executable (PE) format.
	imageNTSignature = 0x00004550 // PE00
)

// Optional header magic values, distinguishing PE32 from PE32+.
const (
	imageNtOptionalHeader32Magic = 0x10b
	imageNtOptionalHeader64Magic = 0x20b
)

// dataDirectoryIndex identifies one of the 16 entries in the optional
// header's data directory array.
type dataDirectoryIndex int

// The data directory entries this reader cares about. Only the CLR runtime
// header entry is ever dereferenced; the rest of the PE's directories
// (export, import, resource, exception, certificate, relocation, debug,
// architecture, global pointer, TLS, load config, bound import, IAT, delay
// import) are out of scope for a read-only CLI metadata reflection engine.
const (
	imageDirectoryEntryCLR dataDirectoryIndex = 14
	imageNumberOfDirectoryEntries              = 16
)
