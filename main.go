// The main package for the categorizer executable.
package main

import (
	"github.com/JakeFAU/domain-categorizer/cmd"
)

func main() {
	cmd.Execute()
}
