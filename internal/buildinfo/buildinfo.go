// Package buildinfo carries the version stamped into binaries via ldflags.
package buildinfo

import (
	"fmt"
	"io"
)

// Info describes a build.
type Info struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Print writes the build information of the binary called name.
func (i Info) Print(w io.Writer, name string) {
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintf(w, "Version:    %s\n", i.Version)
	fmt.Fprintf(w, "Build Date: %s\n", i.BuildDate)
	fmt.Fprintf(w, "Git Commit: %s\n", i.GitCommit)
}
