// # cmd/markprep/main.go
package main

import (
	"os"

	"markprep/internal/cliapp"
)

func main() {
	os.Exit(cliapp.Run(os.Args[1:]))
}
