// Package keys centralizes credential access for agent backends.
// Values come from environment variables first, then from an optional
// JSON credentials file. Retrieved values are never logged or printed;
// only availability is reported.
package keys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Supported maps logical key names to their environment variable
// sources. The set is closed: Lookup rejects unknown names.
var Supported = map[string]string{
	"openai_api_key":     "OPENAI_API_KEY",
	"anthropic_api_key":  "ANTHROPIC_API_KEY",
	"perplexity_api_key": "PERPLEXITY_API_KEY",
	"groq_api_key":       "GROQ_API_KEY",
	"deepseek_api_key":   "DEEPSEEK_API_KEY",
	"github_token":       "GITHUB_TOKEN",
}

// CredentialsFileEnv overrides the credentials file location.
const CredentialsFileEnv = "COGFLOW_CREDENTIALS_FILE"

// Lookup returns the value for a supported key name. Environment
// variables take precedence over the credentials file. The boolean is
// false when the key is not available anywhere.
func Lookup(name string) (string, bool) {
	envVar, ok := Supported[name]
	if !ok {
		return "", false
	}

	if v := os.Getenv(envVar); v != "" {
		return v, true
	}

	fileKeys, err := loadCredentialsFile()
	if err != nil {
		// Env vars are the primary source; a broken file only means
		// the fallback is unavailable.
		return "", false
	}
	v, ok := fileKeys[name]
	return v, ok && v != ""
}

// Require returns the value for a key or an error naming the missing
// environment variable. The error never contains a credential value.
func Require(name string) (string, error) {
	envVar, ok := Supported[name]
	if !ok {
		return "", fmt.Errorf("unknown credential key: %s", name)
	}
	v, found := Lookup(name)
	if !found {
		return "", fmt.Errorf("required credential %q not found: set %s or add it to the credentials file", name, envVar)
	}
	return v, nil
}

// Summary reports which supported keys are available without exposing
// any values.
type Summary struct {
	Available []string `json:"available"`
	Missing   []string `json:"missing"`
	Total     int      `json:"total"`
	File      string   `json:"credentials_file,omitempty"`
}

// Summarize checks every supported key and returns an availability
// summary, sorted for stable output.
func Summarize() Summary {
	s := Summary{Total: len(Supported)}
	for name := range Supported {
		if _, ok := Lookup(name); ok {
			s.Available = append(s.Available, name)
		} else {
			s.Missing = append(s.Missing, name)
		}
	}
	sort.Strings(s.Available)
	sort.Strings(s.Missing)
	if path := credentialsFilePath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			s.File = path
		}
	}
	return s
}

func credentialsFilePath() string {
	if explicit := os.Getenv(CredentialsFileEnv); explicit != "" {
		return explicit
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cogflow", "credentials.json")
}

func loadCredentialsFile() (map[string]string, error) {
	path := credentialsFilePath()
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var keys map[string]string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	return keys, nil
}
