package utils

import (
	"fmt"
	"os"
)

func FileExist(filePath string) bool {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false
	}

	return err == nil
}

func CreateDirIfNotExist(dir string) error {
	if FileExist(dir) {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("unable to create %v: %v", dir, err)
	}

	return nil
}

// MaskSecret keeps the last 4 characters of a credential visible,
// for diagnostics output.
func MaskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}

	if len(secret) <= 4 {
		return "****"
	}

	return "****" + secret[len(secret)-4:]
}
