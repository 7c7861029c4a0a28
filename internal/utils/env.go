package utils

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/kelsos/filestation/internal/logger"
)

// LoadEnvironment loads variables from .env files found in the working
// directory and next to the executable. Variables already present in the
// process environment are never overwritten. It returns the files that loaded.
func LoadEnvironment() []string {
	var candidates []string
	candidates = append(candidates, ".env")

	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), ".env"))
	} else {
		logger.Debug("Could not determine executable path: %v", err)
	}

	return loadFiles(candidates)
}

func loadFiles(candidates []string) []string {
	var loaded []string
	seen := make(map[string]bool, len(candidates))

	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			abs = candidate
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true

		if err := godotenv.Load(abs); err != nil {
			logger.Debug("No .env file loaded from %s: %v", abs, err)
			continue
		}
		logger.Debug("Loaded environment from %s", abs)
		loaded = append(loaded, abs)
	}

	return loaded
}
