package main

import (
	"fmt"
	"os"
	"path/filepath"
)

// runReset deletes profile artifacts for the `reset {data|conf|all}`
// verb: "data" removes the per-currency storage directories, "conf"
// removes conf.json, "all" removes the entire profile directory.
func runReset(profileDir, scope string) int {
	switch scope {
	case "conf":
		return removePath(filepath.Join(profileDir, "conf.json"))
	case "data":
		entries, err := os.ReadDir(profileDir)
		if err != nil {
			if os.IsNotExist(err) {
				return 0
			}
			fmt.Fprintf(os.Stderr, "reset data: %v\n", err)
			return 2
		}
		code := 0
		for _, e := range entries {
			if e.IsDir() {
				if removePath(filepath.Join(profileDir, e.Name())) != 0 {
					code = 2
				}
			}
		}
		return code
	case "all":
		return removePath(profileDir)
	default:
		fmt.Fprintln(os.Stderr, "reset: scope must be data, conf or all")
		return 1
	}
}

func removePath(p string) int {
	if err := os.RemoveAll(p); err != nil {
		fmt.Fprintf(os.Stderr, "reset: %v\n", err)
		return 2
	}
	return 0
}
