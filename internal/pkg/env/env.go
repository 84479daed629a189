package env

import (
	"os"

	"github.com/joho/godotenv"
)

var Env map[string]string

// GetEnv looks up a key in the loaded .env map first and falls back to the
// process environment, which is how containerized deployments and tests
// inject configuration.
func GetEnv(key, def string) string {
	if val, ok := Env[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file found walking up from the working
// directory. Binaries under cmd/ run two levels below the repo root.
func SetupEnvFile() {
	candidates := []string{".env", "../../.env", "../../../.env"}

	var err error
	for _, path := range candidates {
		if Env, err = godotenv.Read(path); err == nil {
			return
		}
	}
	panic("no .env file found in any of the expected locations")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
