// Command tccctl runs store maintenance outside the web server: seeding the
// store from the markdown files, taking and restoring backups, listing
// keys, and hashing admin tokens.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
