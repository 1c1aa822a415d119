package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trustnote/trustnote-go/src/version"
)

// VersionCmd displays the version of trustnote-hub being used
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s (protocol %s, alt %s)\n", version.Version, version.ProtocolVersion, version.Alt)
	},
}
