package commands

import (
	"github.com/spf13/cobra"
)

var _config = NewDefaultCLIConfig()

// RootCmd is the root command for trustnote-hub
var RootCmd = &cobra.Command{
	Use:              "trustnote-hub",
	Short:            "TrustNote hub node",
	TraverseChildren: true,
}
