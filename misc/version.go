// Package misc holds program identity values stamped at build time.
package misc

// Overwritten during build with the -ldflags -X mechanism, see Taskfile.
var (
	appName = "brandcss"
	version = "0.0.0-dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}

// Engine revision participates in result cache signatures. Bumped whenever
// matching, guard or optimizer behavior changes, so a cached result can
// never outlive the code that produced it.
const engineRevision = "r1"

func GetEngineVersion() string {
	return version + "-" + engineRevision
}
