// Package leakwatch provides the command-line interface for the leakwatch
// tool. It configures subcommands (scan, verify, report, rules), parses
// flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/leakwatch/leakwatch/cmd/leakwatch"
//	func main() { leakwatch.Execute() }
package leakwatch
