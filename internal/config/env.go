// Package config loads .env files and the typed settings of the CLI.
package config

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvFileVar names an explicit .env path that skips the search.
const EnvFileVar = "SKILLBRIDGE_ENV_FILE"

// exeSearchDepth is how many parents of the executable directory are searched,
// so bin/skillbridge finds the project-root .env.
const exeSearchDepth = 3

// LoadEnv loads the first .env file found and returns its path, or "" when
// the process runs on system environment variables alone. Variables already
// set in the environment are never overwritten.
//
// Search order:
//  1. Explicit paths passed as arguments (all of them are loaded).
//  2. $SKILLBRIDGE_ENV_FILE.
//  3. The executable directory and its parents.
//  4. The working directory, for `go run ./cmd/skillbridge`.
func LoadEnv(paths ...string) string {
	if len(paths) == 0 {
		if p := os.Getenv(EnvFileVar); p != "" {
			paths = []string{p}
		}
	}
	if len(paths) > 0 {
		if err := godotenv.Load(paths...); err != nil {
			log.Printf("[Config] Cannot load %v: %v", paths, err)
			return ""
		}
		log.Printf("[Config] Loaded %v", paths)
		return paths[0]
	}

	candidates := envCandidates()
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("[Config] Failed to load .env from %s: %v", p, err)
			return ""
		}
		log.Printf("[Config] Loaded .env from %s", p)
		return p
	}

	log.Printf("[Config] No .env file found (searched %d locations), using system environment", len(candidates))
	return ""
}

// envCandidates returns the .env paths to try, deduplicated, in order.
func envCandidates() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		if real, err := filepath.EvalSymlinks(exe); err == nil {
			exe = real
		}
		dirs = append(dirs, parents(filepath.Dir(exe), exeSearchDepth)...)
	}
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}

	seen := make(map[string]bool, len(dirs))
	var out []string
	for _, d := range dirs {
		p := filepath.Join(filepath.Clean(d), ".env")
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// parents returns dir followed by up to n of its ancestors.
func parents(dir string, n int) []string {
	out := []string{dir}
	for i := 0; i < n; i++ {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		out = append(out, parent)
		dir = parent
	}
	return out
}
