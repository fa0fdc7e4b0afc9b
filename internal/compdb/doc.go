// Package compdb reads and writes compilation databases.
//
// A compilation database is a JSON array of objects, one per translation unit,
// as emitted by CMake, Bear, Ninja and friends:
//
//	[
//	  {
//	    "directory": "/proj/build",
//	    "command": "cc -c /proj/src/a.c -o a.o",
//	    "file": "/proj/src/a.c"
//	  }
//	]
//
// Only the "file" attribute is interpreted. Every other attribute is kept as
// raw JSON in its original key order, so a database survives a
// decode/encode round trip without losing or reordering fields.
//
// # Basic Usage
//
//	db, err := compdb.ReadFile("build/compile_commands.json")
//	if err != nil {
//	    return err
//	}
//	for _, rec := range db {
//	    fmt.Println(rec.File())
//	}
//	err = compdb.WriteFile("compile_commands.json", db)
//
// Output is indented with two spaces and HTML characters are not escaped,
// so shell operators such as && in "command" are written as-is.
package compdb
