package auth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fpang/weekly-asset-pipeline/internal/provider"
)

// Credentials holds the keys for each provider family.
type Credentials struct {
	FAL    string
	Gemini string
}

// Check returns a function reporting whether every model in models has a
// key. Empty model names (local renders) need none.
func (c Credentials) Check(models []string) func() error {
	return func() error {
		var missing []string
		need := map[string]bool{}
		for _, m := range models {
			switch {
			case m == "":
			case provider.IsGeminiModel(m):
				if c.Gemini == "" {
					need[GeminiKeyEnv] = true
				}
			default:
				if c.FAL == "" {
					need[FALKeyEnv] = true
				}
			}
		}
		for env := range need {
			missing = append(missing, env)
		}
		if len(missing) == 0 {
			return nil
		}
		sort.Strings(missing)
		return fmt.Errorf("%w: set %s", ErrMissingCredential, strings.Join(missing, " and "))
	}
}
