package cmd

import (
	"io"
	"runtime"

	"grimm.is/directroute/internal/brand"
)

// RunVersion prints build information.
func RunVersion(w io.Writer) {
	Printer.Fprintf(w, "%s %s (commit %s, built %s, %s/%s)\n",
		brand.Name, brand.Version, brand.GitCommit, brand.BuildTime, runtime.GOOS, runtime.GOARCH)
}
