package guard

import (
	"fmt"
	"regexp"

	"github.com/ccastromar/tokens/internal/config"
)

// ---- internal helpers ----

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9._/:-]+$`)

// Known security tag vocabulary for stored definitions.
var validTags = map[string]bool{
	"public":     true,
	"internal":   true,
	"restricted": true,
}

const maxTimeoutMs = 300_000 // 5 min upper bound per model call

// ValidateModels checks every model entry is runnable as written.
func ValidateModels(models []config.Model) error {
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		if m.Name == "" || m.Model == "" {
			return fmt.Errorf("model entry missing name or model id: %+v", m)
		}
		if !nameRe.MatchString(m.Model) {
			return fmt.Errorf("model %s: invalid model id %q", m.Name, m.Model)
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate model name %q", m.Name)
		}
		seen[m.Name] = true

		switch m.Provider {
		case "", "openai", "ollama":
		default:
			return fmt.Errorf("model %s: unknown provider %q", m.Name, m.Provider)
		}
		if m.TimeoutMs < 0 || m.TimeoutMs > maxTimeoutMs {
			return fmt.Errorf("model %s: timeout out of range: %d", m.Name, m.TimeoutMs)
		}
	}
	return nil
}

// ValidateTags checks the tags of a definition against the vocabulary.
func ValidateTags(kind, name string, tags []string) error {
	for _, tag := range tags {
		if !validTags[tag] {
			return fmt.Errorf("%s %q: unknown security tag %q", kind, name, tag)
		}
	}
	return nil
}

// ValidateTasks checks every task references a defined agent.
func ValidateTasks(tasks map[string]config.TaskDef, agents map[string]config.AgentDef) error {
	for name, t := range tasks {
		if t.Description == "" {
			return fmt.Errorf("task %q has no description", name)
		}
		if t.Agent != "" {
			if _, ok := agents[t.Agent]; !ok {
				return fmt.Errorf("task %q references unknown agent %q", name, t.Agent)
			}
		}
		if err := ValidateTags("task", name, t.Tags); err != nil {
			return err
		}
	}
	return nil
}

// ---- public API: un solo punto de entrada ----

func ValidateAll(cfg *config.Config) error {
	if err := ValidateModels(cfg.Models); err != nil {
		return err
	}
	for name, a := range cfg.Agents {
		if err := ValidateTags("agent", name, a.Tags); err != nil {
			return err
		}
	}
	if err := ValidateTasks(cfg.Tasks, cfg.Agents); err != nil {
		return err
	}
	return nil
}
