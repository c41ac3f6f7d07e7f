// Command dialogctl administers a courtroom studio database: schema
// migration, fixture seeding, file imports and graph validation.
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
