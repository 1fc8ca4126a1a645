// Where: cli/internal/version/version.go
// What: Version information retrieval.
// Why: Report the build revision in `autodeploy version` and in recorded deployments.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is overridden at link time (-ldflags "-X .../version.Version=v1.2.3").
var Version = ""

var readBuildInfo = debug.ReadBuildInfo

// GetVersion returns the release version when one was linked in, otherwise
// the short VCS revision with a "(dirty)" marker for modified trees.
// It returns "dev" when neither is available.
func GetVersion() string {
	if Version != "" {
		return Version
	}
	info, ok := readBuildInfo()
	if !ok {
		return "dev"
	}

	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}
	if modified {
		return fmt.Sprintf("%s (dirty)", revision)
	}
	return revision
}
