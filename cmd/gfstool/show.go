package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/pchapin/genericfs/fs"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print superblock, freemap, inode, block, or directory state",
}

var showSuperblockCmd = &cobra.Command{
	Use:   "superblock <partition>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, dev, err := openEngine(args[0])
		if err != nil {
			return err
		}
		defer dev.Close()

		sb := e.SB
		fmt.Printf("magic:                %#x\n", sb.Magic)
		fmt.Printf("block_size:           %d\n", sb.BlockSize)
		fmt.Printf("total_blocks:         %d\n", sb.TotalBlocks)
		fmt.Printf("inode_freemap_blocks: %d\n", sb.InodeFreemapBlocks)
		fmt.Printf("block_freemap_blocks: %d\n", sb.BlockFreemapBlocks)
		fmt.Printf("inode_table_blocks:   %d\n", sb.InodeTableBlocks)
		return nil
	},
}

func printFreemap(m *fs.Freemap) error {
	for n := uint32(0); n < m.NumBits(); n++ {
		set, err := m.Test(n)
		if err != nil {
			return err
		}
		if set {
			fmt.Printf("%d: allocated\n", n)
		}
	}
	return nil
}

var showInodeFreemapCmd = &cobra.Command{
	Use:   "inode-freemap <partition>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, dev, err := openEngine(args[0])
		if err != nil {
			return err
		}
		defer dev.Close()
		return printFreemap(e.InodeFreemap())
	},
}

var showBlockFreemapCmd = &cobra.Command{
	Use:   "block-freemap <partition>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, dev, err := openEngine(args[0])
		if err != nil {
			return err
		}
		defer dev.Close()
		return printFreemap(e.BlockFreemap())
	},
}

var showInodeCmd = &cobra.Command{
	Use:   "inode <partition> <n>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, dev, err := openEngine(args[0])
		if err != nil {
			return err
		}
		defer dev.Close()

		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("parsing inode number: %w", err)
		}

		inode, err := fs.ReadInode(e.Dev, e.SB, uint32(n))
		if err != nil {
			return err
		}
		fmt.Printf("nlinks:         %d\n", inode.NLinks)
		fmt.Printf("uid:            %d\n", inode.UID)
		fmt.Printf("gid:            %d\n", inode.GID)
		fmt.Printf("mode:           %#o\n", inode.Mode)
		fmt.Printf("size:           %d\n", inode.Size)
		fmt.Printf("is_directory:   %t\n", inode.IsDir())
		fmt.Printf("direct:         %v\n", inode.Direct)
		fmt.Printf("first_indirect: %d\n", inode.FirstIndirect)
		fmt.Printf("second_indirect: %d\n", inode.SecondIndirect)
		return nil
	},
}

var showBlockCmd = &cobra.Command{
	Use:   "block <partition> <n>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dev, err := openEngine(args[0])
		if err != nil {
			return err
		}
		defer dev.Close()

		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("parsing block number: %w", err)
		}

		var buf [fs.BlockSize]byte
		if err := dev.ReadBlock(uint32(n), buf[:]); err != nil {
			return err
		}
		fmt.Print(hex.Dump(buf[:]))
		return nil
	},
}

var showRootDirectoryCmd = &cobra.Command{
	Use:   "root-directory <partition>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, dev, err := openEngine(args[0])
		if err != nil {
			return err
		}
		defer dev.Close()

		root, err := fs.ReadInode(e.Dev, e.SB, fs.RootInode)
		if err != nil {
			return err
		}
		entries, err := fs.ReadDirectory(e.Dev, root)
		if err != nil {
			return err
		}
		for _, ent := range entries {
			fmt.Printf("%-30s -> inode %d\n", ent.Name, ent.Inode)
		}
		return nil
	},
}

func init() {
	showCmd.AddCommand(showSuperblockCmd)
	showCmd.AddCommand(showInodeFreemapCmd)
	showCmd.AddCommand(showBlockFreemapCmd)
	showCmd.AddCommand(showInodeCmd)
	showCmd.AddCommand(showBlockCmd)
	showCmd.AddCommand(showRootDirectoryCmd)
	rootCmd.AddCommand(showCmd)
}
