package common

// Version is the running build of the admin frontend, overridden with
// -ldflags="-X 'github.com/oexza/adminfront/common.Version=v1.2.3'".
var Version = "dev"

func GetVersion() string {
	return Version
}
