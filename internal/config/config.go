package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"github.com/rampart-sh/rampart/internal/core"
	"github.com/rampart-sh/rampart/internal/crypto"
)

// Profile is the root structure of a hardening profile file. A profile is
// an ordered plan: operations run top to bottom, includes run before the
// including file's own operations.
type Profile struct {
	Vars       map[string]string `yaml:"vars"`
	Includes   []string          `yaml:"includes"`
	Operations []OperationConfig `yaml:"operations"`
}

// OperationConfig is one declared operation.
type OperationConfig struct {
	Name       string                 `yaml:"name"`
	Type       string                 `yaml:"type"`
	When       string                 `yaml:"when"`
	BestEffort bool                   `yaml:"best_effort"`
	Params     map[string]interface{} `yaml:"params"`
}

// LoadProfile reads a profile and its includes, loads a sibling .env file
// when present, expands ${VAR} references in string parameters, and
// decrypts vault values.
func LoadProfile(path string) (*Profile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	// A .env next to the profile feeds variable expansion; absence is fine.
	envPath := filepath.Join(filepath.Dir(absPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if loadErr := godotenv.Load(envPath); loadErr != nil {
			pterm.Warning.Printf("failed to load %s: %v\n", envPath, loadErr)
		}
	} else {
		_ = godotenv.Load()
	}

	visited := make(map[string]bool)
	profile, err := loadRecursive(absPath, visited)
	if err != nil {
		return nil, err
	}

	expandProfile(profile)
	if err := decryptProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func loadRecursive(path string, visited map[string]bool) (*Profile, error) {
	if visited[path] {
		return &Profile{}, nil
	}
	visited[path] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	if len(data) == 0 {
		return &Profile{}, nil
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("yaml parse error in %s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	var allOps []OperationConfig

	for _, include := range profile.Includes {
		includePath := os.ExpandEnv(include)
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, includePath)
		}
		sub, err := loadRecursive(includePath, visited)
		if err != nil {
			return nil, err
		}

		allOps = append(allOps, sub.Operations...)

		if profile.Vars == nil {
			profile.Vars = make(map[string]string)
		}
		for k, v := range sub.Vars {
			if _, exists := profile.Vars[k]; !exists {
				profile.Vars[k] = v
			}
		}
	}

	profile.Operations = append(allOps, profile.Operations...)
	return &profile, nil
}

// Items converts the profile into the engine's plan form.
func (p *Profile) Items() []core.PlanItem {
	items := make([]core.PlanItem, 0, len(p.Operations))
	for _, op := range p.Operations {
		name := op.Name
		if name == "" {
			if n, ok := op.Params["name"].(string); ok {
				name = n
			}
		}
		items = append(items, core.PlanItem{
			Name:       name,
			Type:       op.Type,
			When:       op.When,
			BestEffort: op.BestEffort,
			Params:     op.Params,
		})
	}
	return items
}

// expandProfile substitutes ${VAR} in all string parameters, resolving
// against profile vars first, then the environment.
func expandProfile(p *Profile) {
	lookup := func(key string) string {
		if v, ok := p.Vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	}
	for i := range p.Operations {
		expandMap(p.Operations[i].Params, lookup)
	}
}

func expandMap(m map[string]interface{}, lookup func(string) string) {
	for k, v := range m {
		switch val := v.(type) {
		case string:
			m[k] = os.Expand(val, lookup)
		case map[string]interface{}:
			expandMap(val, lookup)
		case []interface{}:
			for i, item := range val {
				if s, ok := item.(string); ok {
					val[i] = os.Expand(s, lookup)
				}
			}
		}
	}
}

func decryptProfile(p *Profile) error {
	if !hasEncrypted(p) {
		return nil
	}

	passphrase := vaultPassphrase()
	if passphrase == "" {
		return fmt.Errorf("profile contains vault values but no passphrase is available (set RAMPART_VAULT_PASSPHRASE)")
	}

	for i := range p.Operations {
		if err := decryptMap(p.Operations[i].Params, passphrase); err != nil {
			return fmt.Errorf("operation %s: %w", p.Operations[i].Name, err)
		}
	}
	return nil
}

func hasEncrypted(p *Profile) bool {
	for _, op := range p.Operations {
		for _, v := range op.Params {
			if s, ok := v.(string); ok && crypto.IsEncrypted(s) {
				return true
			}
		}
	}
	return false
}

func decryptMap(m map[string]interface{}, passphrase string) error {
	for k, v := range m {
		s, ok := v.(string)
		if !ok || !crypto.IsEncrypted(s) {
			continue
		}
		plain, err := crypto.Decrypt(s, passphrase)
		if err != nil {
			return err
		}
		m[k] = plain
	}
	return nil
}

// vaultPassphrase resolves the vault passphrase: environment first, then
// ~/.rampart/vault.key, then an interactive prompt on a terminal.
func vaultPassphrase() string {
	if key := os.Getenv("RAMPART_VAULT_PASSPHRASE"); key != "" {
		return key
	}

	if home, err := os.UserHomeDir(); err == nil {
		keyPath := filepath.Join(home, ".rampart", "vault.key")
		if content, err := os.ReadFile(keyPath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if isInteractive() {
		pterm.Warning.Println("Vault values detected but RAMPART_VAULT_PASSPHRASE is not set.")
		key, err := pterm.DefaultInteractiveTextInput.
			WithMask("*").
			WithDefaultText("Vault passphrase").
			Show()
		if err == nil {
			return key
		}
	}
	return ""
}

func isInteractive() bool {
	fileInfo, _ := os.Stdin.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
