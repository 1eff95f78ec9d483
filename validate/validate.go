// Command validate provides a small CLI that validates seed pattern YAML
// files in the ../sim/pattern/patterns directory (or a directory given as the
// first argument). It checks:
//   - YAML structure and required fields (name, layout)
//   - Allowed layout characters ('.' dead, 'O' alive)
//   - Presence of at least one live cell
//   - That the pattern fits on the smallest and largest supported grids
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gridlife/lifeserver/sim/engine"
)

// PatternFile mirrors the YAML schema for a seed pattern.
type PatternFile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Layout      []string `yaml:"layout"`
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validatePattern loads and validates a single pattern YAML file. It performs
// structural checks, layout character validation, and size analysis.
func validatePattern(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var pat PatternFile
	if err := yaml.Unmarshal(data, &pat); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid YAML: %v", err))
		return result
	}

	if pat.Name == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "Missing required field: name")
	}

	if len(pat.Layout) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Layout is empty")
		return result
	}

	liveCount := 0
	maxWidth := 0

	for i, row := range pat.Layout {
		if len(row) > maxWidth {
			maxWidth = len(row)
		}
		for j, char := range row {
			switch char {
			case '.':
			case 'O':
				liveCount++
			default:
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("Invalid character '%c' at position [%d,%d] (expected '.' or 'O')", char, i+1, j+1))
			}
		}
	}

	if liveCount == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Must have at least 1 live cell (O)")
	}

	rows := len(pat.Layout)
	if rows > engine.MaxSize || maxWidth > engine.MaxSize {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Pattern %dx%d exceeds the maximum grid size %d", rows, maxWidth, engine.MaxSize))
	}

	// Add informational data
	if result.Valid {
		fits := "default grid"
		if rows > engine.DefaultSize || maxWidth > engine.DefaultSize {
			fits = "large grids only"
		} else if rows <= engine.MinSize && maxWidth <= engine.MinSize {
			fits = "any grid"
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", pat.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Extent: %dx%d (%s)", rows, maxWidth, fits))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Live cells: %d", liveCount))
	}

	return result
}

// main scans the pattern directory for *.yaml files and validates each one,
// printing a concise report and exiting with non-zero status if any are
// invalid.
func main() {
	patternDir := "../sim/pattern/patterns"
	if len(os.Args) > 1 {
		patternDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(patternDir, "*.yaml"))
	if err != nil {
		fmt.Printf("Error finding pattern files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validatePattern(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All patterns are valid!")
	} else {
		fmt.Println("❌ Some patterns have errors")
		os.Exit(1)
	}
}
