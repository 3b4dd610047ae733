// Command semdump prints the raw instrument metadata keys of a SEM image.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	semimage "sem-view/internal/image"
	"sem-view/internal/semmeta"
)

func main() {
	imagePath := flag.String("image", "", "Path to SEM image (TIFF)")
	prefix := flag.String("key", "", "Only show keys starting with this prefix (e.g. ap_)")
	desc := flag.Bool("desc", false, "Also print the raw image description")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: semdump -image <path> [-key ap_] [-desc]")
		os.Exit(1)
	}

	layer, err := semimage.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %s image: %dx%d pixels\n", layer.Format, layer.Width(), layer.Height())

	block := layer.Metadata()
	if block == nil {
		fmt.Println("No SEM metadata (tag 34118) found.")
	} else {
		keys := matchingKeys(block, strings.ToLower(*prefix))
		fmt.Printf("\n%d of %d keys:\n", len(keys), len(block))
		fmt.Printf("%-28s %-28s %-20s %s\n", "Key", "Label", "Value", "Unit")
		fmt.Println(strings.Repeat("-", 84))
		for _, k := range keys {
			e := block[k]
			fmt.Printf("%-28s %-28s %-20s %s\n", k, e.Label, e.Value, e.Unit)
		}
		fmt.Printf("\nScale: %s\n", semmeta.DecodeScale(block))
	}

	if *desc {
		fmt.Println("\nImage description:")
		if layer.Description == nil {
			fmt.Println("  (none)")
		} else {
			fmt.Println(strings.TrimRight(string(layer.Description), "\x00"))
		}
	}
}

func matchingKeys(b semmeta.Block, prefix string) []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
