package version

// Flag contains extra info about the version. It is helpul for tracking
// versions while developing. It should always by empty on the master branch.
const Flag = "develop"

// Protocol identifiers exchanged in the version handshake. Peers that report a
// different ProtocolVersion or Alt are disconnected, and units carrying other
// values are never used as parents.
const (
	ProtocolVersion = "1.0"
	Alt             = "1"
	Library         = "trustnote-go"
)

var (
	// Version is The full version string
	Version = "0.3.0"

	// GitCommit is set with --ldflags "-X main.gitCommit=$(git rev-parse HEAD)"
	GitCommit string
)

func init() {
	Version += "-" + Flag

	if GitCommit != "" {
		Version += "-" + GitCommit[:8]
	}
}
