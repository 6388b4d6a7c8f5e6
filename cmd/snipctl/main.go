// Command snipctl is the command-line client for snippet-vault.
//
//	snipctl login -u ada            # prompts for the password
//	snipctl list --language Go --tag sorting
//	snipctl add --title "Bubble Sort" --language Python --usecase demo --file sort.py --tag sorting
//	snipctl run <id> --stdin "5 3 1"
//
// Configuration comes from SNIPCTL_* environment variables; the global
// flags override them.
package main

import (
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
)

func main() {
	root := newRootCmd(envconfig.OsLookuper())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render(err.Error()))
		os.Exit(1)
	}
}
