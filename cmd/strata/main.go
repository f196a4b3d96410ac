// Command strata runs the bronze to gold batch pipeline.
package main

import "github.com/mesh-intelligence/strata/internal/cli"

func main() {
	cli.Execute()
}
