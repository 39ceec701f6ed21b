// Command mgmtctl runs maintenance tasks against the management datastore:
// schema migration, health checks, fixture seeding and cascading purges.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
