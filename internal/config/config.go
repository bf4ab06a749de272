// Package config handles litmap project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents project configuration stored in litmap.yml.
type Config struct {
	RISSourceDir       string        `yaml:"ris_source_dir" validate:"required"`
	ManualGroupingsDir string        `yaml:"manual_groupings_dir,omitempty"`
	CrossQueryIdentity string        `yaml:"cross_query_identity,omitempty" validate:"omitempty,oneof=id work"`
	Queries            []QueryConfig `yaml:"queries" validate:"required,min=1,unique=Name,dive"`
	Log                LogConfig     `yaml:"log,omitempty"`

	// root is the directory holding the config file; relative paths resolve against it.
	root string
}

// QueryConfig describes one common search query and where its RIS export lives.
// Either Prefix (newest "<prefix>*.txt" in the RIS source folder) or RISFile must be set.
type QueryConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Query   string `yaml:"query,omitempty"`
	Prefix  string `yaml:"prefix,omitempty" validate:"required_without=RISFile"`
	RISFile string `yaml:"ris_file,omitempty" validate:"required_without=Prefix"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format,omitempty" validate:"omitempty,oneof=json console"`
}

const (
	// ConfigFile is the project configuration file name.
	ConfigFile = "litmap.yml"

	// DefaultRISSourceDir holds the RIS exports, one or more per query.
	DefaultRISSourceDir = "RIS_source_files"

	// DefaultManualGroupingsDir holds most_cited*/most_relevant* exports.
	DefaultManualGroupingsDir = "RIS_source_files/manual_groupings"

	// IdentityID intersects cross-query groups on record ids.
	IdentityID = "id"
	// IdentityWork intersects cross-query groups on DOI / normalized title.
	IdentityWork = "work"

	// RISFilePattern is the suffix matched after a query's prefix.
	RISFilePattern = "*.txt"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns a starter configuration with one example query.
func Default() *Config {
	return &Config{
		RISSourceDir:       DefaultRISSourceDir,
		ManualGroupingsDir: DefaultManualGroupingsDir,
		CrossQueryIdentity: IdentityWork,
		Queries: []QueryConfig{
			{Name: "NLP_Extraction", Query: `("Natural Language Processing"[Title/Abstract]) AND ("Extraction"[Title/Abstract])`, Prefix: "pubmed"},
		},
		Log: LogConfig{Level: "warn", Format: "console"},
	}
}

// ConfigPath returns the path to litmap.yml from a project root.
func ConfigPath(root string) string {
	return filepath.Join(root, ConfigFile)
}

// IsProject checks if the given directory contains a litmap.yml.
func IsProject(root string) bool {
	info, err := os.Stat(ConfigPath(root))
	return err == nil && !info.IsDir()
}

// FindProject walks up from the given path to find a litmap project.
// Returns the project root path or an error if not found.
func FindProject(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsProject(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a litmap project (no %s found)", ConfigFile)
		}
		abs = parent
	}
}

// Load reads, defaults and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	cfg.root = abs
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ManualGroupingsDir == "" {
		c.ManualGroupingsDir = filepath.Join(c.RISSourceDir, "manual_groupings")
	}
	if c.CrossQueryIdentity == "" {
		c.CrossQueryIdentity = IdentityID
	}
}

// Validate checks field constraints and reports them as a single error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	sort.Strings(msgs)
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Root returns the directory the config was loaded from.
func (c *Config) Root() string {
	return c.root
}

// SetRoot sets the directory relative paths resolve against.
func (c *Config) SetRoot(root string) {
	c.root = root
}

// ResolvePath expands ~ and makes p absolute relative to the config root.
func (c *Config) ResolvePath(p string) string {
	p = ExpandPath(p)
	if p == "" || filepath.IsAbs(p) || c.root == "" {
		return p
	}
	return filepath.Join(c.root, p)
}

// RISSourcePath returns the resolved RIS source folder.
func (c *Config) RISSourcePath() string {
	return c.ResolvePath(c.RISSourceDir)
}

// ManualGroupingsPath returns the resolved manual groupings folder.
func (c *Config) ManualGroupingsPath() string {
	return c.ResolvePath(c.ManualGroupingsDir)
}

// QueryNames returns the configured query names in file order.
func (c *Config) QueryNames() []string {
	names := make([]string, len(c.Queries))
	for i, q := range c.Queries {
		names[i] = q.Name
	}
	return names
}

// ResolveRISFile returns the RIS file for a query: the explicit ris_file, or
// the newest file in the RIS source folder matching the query's prefix.
// Returns "" (no error) when no file matches.
func (c *Config) ResolveRISFile(q QueryConfig) (string, error) {
	if q.RISFile != "" {
		return c.ResolvePath(q.RISFile), nil
	}
	return FindNewest(c.RISSourcePath(), q.Prefix+RISFilePattern)
}

// FindNewest returns the most recently modified regular file in dir matching
// pattern. Returns "" (no error) when the folder is missing or nothing matches.
func FindNewest(dir, pattern string) (string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", fmt.Errorf("matching %s: %w", pattern, err)
	}

	var newest string
	var newestMod int64
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		mod := info.ModTime().UnixNano()
		// Ties break on name so the choice is stable.
		if newest == "" || mod > newestMod || (mod == newestMod && m > newest) {
			newest, newestMod = m, mod
		}
	}
	return newest, nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
