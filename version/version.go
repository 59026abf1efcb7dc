package version

// will be replaced with the release version when using goreleaser
var version = "development"

// AppVersion returns the launcher version
func AppVersion() string {
	return version
}
