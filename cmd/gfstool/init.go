package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pchapin/genericfs/fs"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init <partition> <blocks>",
	Short: "Create and format a new GenericFS partition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		blocks, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("parsing block count: %w", err)
		}

		dev, err := fs.CreateFileBlockDevice(path, uint32(blocks))
		if err != nil {
			return err
		}
		defer dev.Close()

		if err := fs.Initialize(dev, uint32(blocks)); err != nil {
			return err
		}

		slog.Info("formatted partition", "path", path, "blocks", blocks)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
