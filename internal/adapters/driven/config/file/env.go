package file

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFile is the dotenv file name.
const EnvFile = ".env"

// LoadEnv reads .env files into a map without touching the process
// environment. Later directories override earlier ones; missing files are
// skipped.
func LoadEnv(dirs ...string) (map[string]string, error) {
	env := make(map[string]string)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, EnvFile)
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		for k, v := range values {
			env[k] = v
		}
	}
	return env, nil
}
