// Command assembler turns DCPU-16 assembly source into a flat binary image
// (spec.md 6's wire format: big-endian words, no header).
package main

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/coredump16/dcpu16/asm"
)

func main() {
	var outPath string

	root := &cobra.Command{
		Use:   "assembler [flags] <in.asm>",
		Short: "assemble DCPU-16 source into a binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return assemble(args[0], outPath)
		},
	}
	root.Flags().StringVarP(&outPath, "out", "o", "", "output image path (default: <in> with .bin extension)")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func assemble(inPath, outPath string) error {
	src, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("assembler: %w", err)
	}

	items, err := asm.Parse(string(src))
	if err != nil {
		return fmt.Errorf("assembler: %w", err)
	}

	image, _, err := asm.Link(items)
	if err != nil {
		return fmt.Errorf("assembler: %w", err)
	}

	if outPath == "" {
		outPath = defaultOutPath(inPath)
	}
	return writeImage(outPath, image)
}

func defaultOutPath(inPath string) string {
	for i := len(inPath) - 1; i >= 0 && inPath[i] != '/'; i-- {
		if inPath[i] == '.' {
			return inPath[:i] + ".bin"
		}
	}
	return inPath + ".bin"
}

func writeImage(path string, image []uint16) error {
	raw := make([]byte, len(image)*2)
	for i, w := range image {
		binary.BigEndian.PutUint16(raw[i*2:], w)
	}
	return os.WriteFile(path, raw, 0o644)
}
