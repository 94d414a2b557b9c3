// Package main is the entry point of the smdecode binary.
package main

import "go.k6.io/smdecode/cmd"

func main() {
	cmd.Execute()
}
