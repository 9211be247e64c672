// Command jarcache unpacks archives into a temporary extraction cache and
// resolves native library, class, and resource names against it.
package main

import (
	"errors"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errLookupMiss) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
