package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petsaude/iasys"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of iasys",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("iasys version %s\n", strings.TrimSpace(iasys.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
