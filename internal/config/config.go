package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models mprs.yml. Everything has a working default so a fresh
// workspace needs no config file at all.
type Config struct {
	Organization struct {
		Company       string   `yaml:"company"`
		Location      []string `yaml:"location"`
		DocumentTitle string   `yaml:"document_title"`
	} `yaml:"organization"`
	Vocabulary struct {
		Units       []string `yaml:"units"`
		Departments []string `yaml:"departments"`
	} `yaml:"vocabulary"`
	Form struct {
		Title      string `yaml:"title"`
		Department string `yaml:"department"`
	} `yaml:"form"`
	Assist struct {
		Endpoint  string `yaml:"endpoint"`
		Model     string `yaml:"model"`
		APIKeyEnv string `yaml:"api_key_env"`
	} `yaml:"assist"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Organization.Company == "" {
		return fmt.Errorf("config.organization.company is required")
	}
	if len(c.Vocabulary.Units) == 0 {
		return fmt.Errorf("config.vocabulary.units must not be empty")
	}
	if len(c.Vocabulary.Departments) == 0 {
		return fmt.Errorf("config.vocabulary.departments must not be empty")
	}
	for _, u := range c.Vocabulary.Units {
		if u == "" {
			return fmt.Errorf("config.vocabulary.units contains an empty unit")
		}
	}
	if c.Form.Department != "" && !contains(c.Vocabulary.Departments, c.Form.Department) {
		return fmt.Errorf("config.form.department %q not in departments vocabulary", c.Form.Department)
	}
	return nil
}

// KnownUnit reports whether u is in the unit vocabulary.
func (c *Config) KnownUnit(u string) bool {
	return contains(c.Vocabulary.Units, u)
}

// KnownDepartment reports whether d is in the department vocabulary.
func (c *Config) KnownDepartment(d string) bool {
	return contains(c.Vocabulary.Departments, d)
}

// DefaultDepartment returns the configured form default, falling back to
// the first vocabulary entry.
func (c *Config) DefaultDepartment() string {
	if c.Form.Department != "" {
		return c.Form.Department
	}
	if len(c.Vocabulary.Departments) > 0 {
		return c.Vocabulary.Departments[0]
	}
	return ""
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "mprs.yml")
}

// Load reads config from workspace, falling back to defaults when the
// file does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultTemplate), &cfg); err != nil {
		panic(fmt.Sprintf("default config template: %v", err))
	}
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes. Fields left
// out of the file keep their defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// GenerateDefault returns the default config YAML, for `mprs config init`.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `organization:
  company: Samuda Construction Ltd (Unit-1)
  location:
    - Zone - 16, National Special Economic Zone
    - Mirsarai , Chattogram.
  document_title: Material Purchase Requisition Slip ( MPRS )

vocabulary:
  units: [Pcs, Kg, Mtr, Sft, Cft, Bag, Drum, Liter, Set, Bundle]
  departments:
    - Feed Hopper
    - Heading & Cutting
    - Mould Maintenance
    - Pile Shoe Making
    - Project
    - QC Lab
    - Spinning Machine
    - Steam Pool
    - Tensioning Machine
    - Utility
    - Wire Drawing Machine
    - Workshop
    - Apron Machine
    - Batching Plant
    - Boiler
    - Cage Making
    - Cage Settings & Fittings
    - Crane
    - Cushion Making
    - Delivery
    - Demoulding Machine
    - Admin

form:
  title: Requisition for Materials
  department: Feed Hopper

assist:
  endpoint: https://generativelanguage.googleapis.com
  model: gemini-2.0-flash
  api_key_env: MPRS_API_KEY
`
