// Command reposync synchronizes a local path with a remote source: a Git
// repository (clone, pull, sparse or single-file checkout) or a direct
// HTTP(S) download, with optional proxy rewriting and token authentication.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/nodeops/reposync/internal/gitcmd"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		// A failed git child process terminates the tool with the child's
		// exit code; everything else maps to the generic failure code.
		var exitErr *gitcmd.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
