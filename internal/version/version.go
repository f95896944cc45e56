// Package version exposes the engine version that policy documents
// constrain through their requires field.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the engine's semantic version, stamped by release builds.
// The default "dev" satisfies every policy requires constraint.
var Version = "dev"

// Info describes the running build.
type Info struct {
	Version   string
	Revision  string
	Modified  bool
	GoVersion string
	Platform  string
}

// Get returns the running build's information. The revision comes from
// the VCS metadata the Go toolchain embeds; "unknown" outside a
// checkout.
func Get() Info {
	info := Info{
		Version:   Version,
		Revision:  "unknown",
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Revision = s.Value
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	return info
}

// String returns the bare version.
func (i Info) String() string {
	return i.Version
}

// Full returns the detailed build description shown by the version
// command, with the revision shortened to its usual 12 characters.
func (i Info) Full() string {
	revision := i.Revision
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if i.Modified {
		revision += "+dirty"
	}
	return fmt.Sprintf("%s (%s) %s %s", i.Version, revision, i.GoVersion, i.Platform)
}
