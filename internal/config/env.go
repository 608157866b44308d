package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from a .env file. Variables already
// present in the environment keep their values.
func LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoadEnvOptional loads environment variables from a .env file if it exists.
// A missing file is not an error.
func LoadEnvOptional(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return LoadEnv(path)
}
