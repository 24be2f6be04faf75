// The main package for the radar executable.
package main

import (
	"github.com/JakeFAU/academic-radar/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
