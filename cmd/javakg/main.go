// # cmd/javakg/main.go
package main

import (
	"os"

	"javakg/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
