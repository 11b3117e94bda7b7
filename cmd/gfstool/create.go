package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pchapin/genericfs/fs"
	"github.com/spf13/cobra"
)

var createFileCmd = &cobra.Command{
	Use:   "create-file <partition> <path> <name> <source-file>",
	Short: "Create a file under <path> with the contents of <source-file>",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		partitionPath, dirPath, name, sourcePath := args[0], args[1], args[2], args[3]

		e, dev, err := openEngine(partitionPath)
		if err != nil {
			return err
		}
		defer dev.Close()

		dirInode, dirInoNum, _, err := e.ResolvePath(dirPath)
		if err != nil {
			return err
		}
		if !dirInode.IsDir() {
			return fmt.Errorf("%w: %s", fs.ErrNotDirectory, dirPath)
		}

		data, err := os.ReadFile(sourcePath)
		if err != nil {
			return err
		}

		ino, err := e.CreateFile(dirInoNum, name, data, fs.ModePerm)
		if err != nil {
			return err
		}
		slog.Info("created file", "path", dirPath+"/"+name, "inode", ino, "bytes", len(data))
		return nil
	},
}

var createDirCmd = &cobra.Command{
	Use:   "create-dir <partition> <path> <name>",
	Short: "Create a directory named <name> under <path>",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		partitionPath, dirPath, name := args[0], args[1], args[2]

		e, dev, err := openEngine(partitionPath)
		if err != nil {
			return err
		}
		defer dev.Close()

		dirInode, dirInoNum, _, err := e.ResolvePath(dirPath)
		if err != nil {
			return err
		}
		if !dirInode.IsDir() {
			return fmt.Errorf("%w: %s", fs.ErrNotDirectory, dirPath)
		}

		ino, err := e.CreateDirectory(dirInoNum, name)
		if err != nil {
			return err
		}
		slog.Info("created directory", "path", dirPath+"/"+name, "inode", ino)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createFileCmd)
	rootCmd.AddCommand(createDirCmd)
}
