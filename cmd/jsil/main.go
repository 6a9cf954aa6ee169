// Jsil compiles JavaScript to a typed stack-machine program and runs it.
package main

import (
	"os"

	"src.jsil.dev/pkg/prog"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args, os.LookupEnv))
}
