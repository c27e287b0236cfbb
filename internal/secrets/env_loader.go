package secrets

import (
	"fmt"
	"os"
	"strings"
)

// fileSuffix marks a variable that names a file holding the secret, the
// convention used by Docker and Kubernetes secret mounts.
const fileSuffix = "_FILE"

// EnvLoader returns a Loader that reads the given environment variables.
// When KEY is unset but KEY_FILE is, the secret is read from that file with
// surrounding whitespace trimmed. Missing variables are omitted.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
				continue
			}
			path := os.Getenv(k + fileSuffix)
			if path == "" {
				continue
			}
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s%s: %w", k, fileSuffix, err)
			}
			if v := strings.TrimSpace(string(b)); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}
