// The main package for the appprofiler executable.
package main

import (
	"github.com/JakeFAU/appprofiler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
