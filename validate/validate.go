// Command validate provides a small CLI that validates map definition JSON
// files in a directory, printing a concise ✓/❌ report per file. It checks:
//   - JSON structure and required fields
//   - Positive row/column counts and a non-empty tile list
//   - No duplicate tile cells and no tile column outside [0, cols);
//     tile rows are not range-checked
//   - Every prop and spawn point sits on an occupied tile
//   - At least 2 distinct spawn points
//   - initial_card_count is non-negative and fits in the free cells
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/hexroom/roomconfig"
)

func main() {
	dir := "../configs"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding map files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), filepath.Base(file))

		def, err := roomconfig.LoadMapDefinition(file)
		if err != nil {
			allValid = false
			fmt.Println("❌ INVALID")
			for _, line := range strings.Split(err.Error(), "\n") {
				if line != "" {
					fmt.Println("  ❌ " + line)
				}
			}
			continue
		}

		fmt.Println("✅ VALID")
		fmt.Printf("  ✓ Grid: %dx%d\n", def.Rows, def.Cols)
		fmt.Printf("  ✓ Tiles: %d\n", len(def.Tiles))
		fmt.Printf("  ✓ Props: %d\n", len(def.Props))
		fmt.Printf("  ✓ Spawn points: %d\n", len(def.SpawnPoints))
		fmt.Printf("  ✓ Initial cards: %d\n", def.InitialCardCount)
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All map definitions are valid!")
	} else {
		fmt.Println("❌ Some map definitions have errors")
		os.Exit(1)
	}
}
