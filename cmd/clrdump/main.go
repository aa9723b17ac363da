// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/saferwall/clrmeta"
	"github.com/spf13/cobra"
)

func prettyPrint(v interface{}) string {
	buf, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, buf, "", "\t"); err != nil {
		return string(buf)
	}
	return pretty.String()
}

func openAssembly(path string) (*clrmeta.Loader, *clrmeta.ModuleContext, error) {
	loader := clrmeta.NewLoader(singleFileLocator{path: path}, nil)
	asm, err := loader.GetOrLoadAssembly(clrmeta.PathLocation(path))
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return loader, asm.ManifestModule(), nil
}

// singleFileLocator resolves every cross-reference back to the same file,
// the only sensible default for a one-shot CLI dump of a single module.
type singleFileLocator struct{ path string }

func (s singleFileLocator) LocateAssembly(clrmeta.AssemblyName) (clrmeta.Location, error) {
	return clrmeta.PathLocation(s.path), nil
}

func (s singleFileLocator) LocateNamespace(string) (clrmeta.Location, error) {
	return clrmeta.PathLocation(s.path), nil
}

func (s singleFileLocator) LocateModule(clrmeta.AssemblyName, string) (clrmeta.Location, error) {
	return clrmeta.PathLocation(s.path), nil
}

var dumpTables = []struct {
	name string
	id   clrmeta.TableID
}{
	{"Module", clrmeta.TableModule},
	{"TypeRef", clrmeta.TableTypeRef},
	{"TypeDef", clrmeta.TableTypeDef},
	{"Field", clrmeta.TableField},
	{"MethodDef", clrmeta.TableMethodDef},
	{"Param", clrmeta.TableParam},
	{"InterfaceImpl", clrmeta.TableInterfaceImpl},
	{"MemberRef", clrmeta.TableMemberRef},
	{"Event", clrmeta.TableEvent},
	{"Property", clrmeta.TableProperty},
	{"ModuleRef", clrmeta.TableModuleRef},
	{"TypeSpec", clrmeta.TableTypeSpec},
	{"Assembly", clrmeta.TableAssembly},
	{"AssemblyRef", clrmeta.TableAssemblyRef},
	{"File", clrmeta.TableFile},
	{"NestedClass", clrmeta.TableNestedClass},
	{"GenericParam", clrmeta.TableGenericParam},
	{"MethodSpec", clrmeta.TableMethodSpec},
}

func runDump(cmd *cobra.Command, args []string) error {
	_, mod, err := openAssembly(args[0])
	if err != nil {
		return err
	}
	db := mod.Database()

	name, _ := mod.Name()
	counts := make(map[string]uint32, len(dumpTables))
	for _, t := range dumpTables {
		if n := db.RowCount(t.id); n > 0 {
			counts[t.name] = n
		}
	}

	fmt.Println(prettyPrint(struct {
		Module    string
		RowCounts map[string]uint32
	}{Module: name, RowCounts: counts}))
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	table, _ := cmd.Flags().GetString("table")
	row, _ := cmd.Flags().GetUint32("row")

	loader, mod, err := openAssembly(args[0])
	if err != nil {
		return err
	}

	var tok clrmeta.Token
	switch table {
	case "typeref":
		tok, err = loader.ResolveTypeRef(mod, row)
	case "memberref":
		tok, err = loader.ResolveMemberRef(mod, row)
	default:
		return fmt.Errorf("unknown --table %q (want typeref or memberref)", table)
	}
	if err != nil {
		return fmt.Errorf("resolving %s row %d: %w", table, row, err)
	}

	namer := clrmeta.NewTypeNamer(loader)
	full, err := namer.Name(tok, clrmeta.NameAssemblyQualified)
	if err != nil {
		return fmt.Errorf("naming resolved token: %w", err)
	}
	fmt.Println(full)
	return nil
}

func runMembers(cmd *cobra.Command, args []string) error {
	row, _ := cmd.Flags().GetUint32("row")

	loader, mod, err := openAssembly(args[0])
	if err != nil {
		return err
	}
	db := mod.Database()

	tok, err := db.Token(clrmeta.TableTypeDef, row)
	if err != nil {
		return fmt.Errorf("TypeDef row %d: %w", row, err)
	}

	table, err := loader.Membership(clrmeta.TypeSig{Elem: clrmeta.ElemClass, TypeToken: tok})
	if err != nil {
		return fmt.Errorf("computing membership: %w", err)
	}

	type summary struct {
		Fields     []string
		Methods    []string
		Events     []string
		Properties []string
		Interfaces int
	}
	s := summary{Interfaces: len(table.Interfaces)}
	for _, f := range table.Fields {
		s.Fields = append(s.Fields, f.Name)
	}
	for _, m := range table.Methods {
		s.Methods = append(s.Methods, m.Name)
	}
	for _, e := range table.Events {
		s.Events = append(s.Events, e.Name)
	}
	for _, p := range table.Properties {
		s.Properties = append(s.Properties, p.Name)
	}
	fmt.Println(prettyPrint(s))
	return nil
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   "clrdump",
		Short: "A .NET metadata reflection dumper",
		Long:  "Inspects the CLI metadata embedded in a .NET assembly, built for offline malware and binary analysis.",
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("You are using version 0.1.0")
		},
	}

	var dumpCmd = &cobra.Command{
		Use:   "dump <file>",
		Short: "Dumps module identity and metadata table row counts",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}

	var resolveCmd = &cobra.Command{
		Use:   "resolve <file>",
		Short: "Resolves a TypeRef or MemberRef row to its full type name",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}
	resolveCmd.Flags().String("table", "typeref", "table to resolve from: typeref or memberref")
	resolveCmd.Flags().Uint32("row", 1, "1-based row number")

	var membersCmd = &cobra.Command{
		Use:   "members <file>",
		Short: "Computes and prints a TypeDef's full membership table",
		Args:  cobra.ExactArgs(1),
		RunE:  runMembers,
	}
	membersCmd.Flags().Uint32("row", 1, "TypeDef row number")

	rootCmd.AddCommand(versionCmd, dumpCmd, resolveCmd, membersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
