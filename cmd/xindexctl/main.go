// Command xindexctl drives the semantic index for local development and
// CI use: index a project, watch it for changes, and query it.
package main

func main() {
	Execute()
}
