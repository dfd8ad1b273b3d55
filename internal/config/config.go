package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Model is one candidate backend for a comparison run.
type Model struct {
	Name      string `yaml:"name"`
	Model     string `yaml:"model"`    // model id as the backend knows it
	Provider  string `yaml:"provider"` // openai (compatible endpoint) or ollama
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	TimeoutMs int    `yaml:"timeout"`
}

// AgentDef mirrors a crew-style agent definition. Tags are security labels
// carried through to the store; they are not evaluated here.
type AgentDef struct {
	Name      string   `yaml:"name" json:"name"`
	Role      string   `yaml:"role" json:"role"`
	Goal      string   `yaml:"goal" json:"goal"`
	Backstory string   `yaml:"backstory" json:"backstory"`
	Tags      []string `yaml:"tags" json:"tags"`
}

// TaskDef is the prompt template a run renders before fanning out.
type TaskDef struct {
	Name           string   `yaml:"name" json:"name"`
	Description    string   `yaml:"description" json:"description"` // template, sees {{ .prompt }}
	ExpectedOutput string   `yaml:"expected_output" json:"expected_output"`
	Agent          string   `yaml:"agent" json:"agent"`
	Tags           []string `yaml:"tags" json:"tags"`
}

type Config struct {
	Models []Model
	Agents map[string]AgentDef
	Tasks  map[string]TaskDef
}

// LoadFromDir reads models/, agents/ and tasks/ under base. Placeholders of
// the form ${VAR} in model base_url and api_key resolve from the environment
// at load time, never at call time.
func LoadFromDir(base string) (*Config, error) {
	cfg := &Config{
		Agents: make(map[string]AgentDef),
		Tasks:  make(map[string]TaskDef),
	}

	if err := loadModelsDir(filepath.Join(base, "models"), cfg); err != nil {
		return nil, err
	}
	if err := loadAgentsDir(filepath.Join(base, "agents"), cfg); err != nil {
		return nil, err
	}
	if err := loadTasksDir(filepath.Join(base, "tasks"), cfg); err != nil {
		return nil, err
	}

	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("no models defined under %s", base)
	}

	return cfg, nil
}

func loadModelsDir(dir string, cfg *Config) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading models dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var raw struct {
			Models []Model `yaml:"models"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, m := range raw.Models {
			if m.BaseURL, err = ExpandEnv(m.BaseURL); err != nil {
				return fmt.Errorf("model %s: %w", m.Name, err)
			}
			if m.APIKey, err = ExpandEnv(m.APIKey); err != nil {
				return fmt.Errorf("model %s: %w", m.Name, err)
			}
			cfg.Models = append(cfg.Models, m)
		}
	}
	return nil
}

func loadAgentsDir(dir string, cfg *Config) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading agents dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var raw struct {
			Agents []AgentDef `yaml:"agents"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, a := range raw.Agents {
			cfg.Agents[a.Name] = a
		}
	}
	return nil
}

func loadTasksDir(dir string, cfg *Config) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading tasks dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var raw struct {
			Tasks []TaskDef `yaml:"tasks"`
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, t := range raw.Tasks {
			cfg.Tasks[t.Name] = t
		}
	}
	return nil
}

// ExpandEnv resolves a ${VAR} placeholder against the environment.
// Plain values pass through untouched. An unset variable is an error so a
// half-configured model fails at load, not mid-run.
func ExpandEnv(value string) (string, error) {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value, nil
	}
	name := value[2 : len(value)-1]
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", fmt.Errorf("environment variable %s is not set", name)
	}
	return v, nil
}
