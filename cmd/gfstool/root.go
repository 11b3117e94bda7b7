package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gfstool",
	Short: "Format, inspect, and verify GenericFS partitions",
	Long: `gfstool operates on GenericFS partition files: it can format a new
partition, dump superblock/freemap/inode/directory state, create files and
directories directly, and run the consistency verifier.`,
	SilenceUsage: true,
}
