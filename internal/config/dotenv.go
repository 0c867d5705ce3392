// ABOUTME: Optional .env file loading before configuration is read
// ABOUTME: Variables already set in the environment are never overridden

package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// DefaultDotEnvFile is read from the working directory at startup.
const DefaultDotEnvFile = ".env"

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// It reports whether a file was found; a missing file is not an error.
func LoadDotEnv(path string) (bool, error) {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("loading %s: %w", path, err)
	}
	return true, nil
}
