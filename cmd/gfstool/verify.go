package main

import (
	"fmt"

	"github.com/pchapin/genericfs/fs"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <partition>",
	Short: "Check the partition's block and inode bookkeeping for consistency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := fs.OpenFileBlockDevice(args[0])
		if err != nil {
			return err
		}
		defer dev.Close()

		findings, err := fs.Verify(dev)
		if err != nil {
			return err
		}

		if len(findings) == 0 {
			fmt.Println("clean: no inconsistencies found")
			return nil
		}
		for _, f := range findings {
			fmt.Println(f.String())
		}
		return fmt.Errorf("genericfs: %d inconsistencies found", len(findings))
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
