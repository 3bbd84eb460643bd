package main

// main is the entry point for the calibre2yac application. It invokes the
// Execute function (defined in root.go) which sets up and executes the root
// Cobra command; error printing and exit codes follow Cobra's Execute pattern.
func main() {
	Execute()
}
