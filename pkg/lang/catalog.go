package lang

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed data/*.toml
var embedded embed.FS

const sharedFile = "defaults.toml"

// Shared is the part of the configuration common to every language.
type Shared struct {
	Languages       []string            `toml:"languages"`
	DefaultLanguage string              `toml:"default_language"`
	Separators      []string            `toml:"separators"`
	Substitutions   map[string][]string `toml:"substitutions"`
}

// Catalog is the set of validated language configs loaded from one source.
type Catalog struct {
	shared Shared
	langs  map[string]Config
}

// Default loads the dictionaries compiled into the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Load reads defaults.toml and one <language>.toml per supported language from fsys.
func Load(fsys fs.FS) (*Catalog, error) {
	var shared Shared
	if _, err := toml.DecodeFS(fsys, sharedFile, &shared); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", sharedFile, err)
	}
	if len(shared.Languages) == 0 {
		return nil, fmt.Errorf("%w: no languages listed in %s", ErrInvalidConfig, sharedFile)
	}
	if shared.DefaultLanguage == "" {
		shared.DefaultLanguage = shared.Languages[0]
	}
	if !slices.Contains(shared.Languages, shared.DefaultLanguage) {
		return nil, fmt.Errorf("%w: default language %q", ErrUnsupportedLanguage, shared.DefaultLanguage)
	}

	c := Catalog{
		shared: shared,
		langs:  make(map[string]Config, len(shared.Languages)),
	}
	for _, name := range shared.Languages {
		var cfg Config
		file := name + ".toml"
		if _, err := toml.DecodeFS(fsys, file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", file, err)
		}
		cfg = c.Merge(name, cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		c.langs[name] = cfg
	}

	return &c, nil
}

// Merge fills the shared separators and substitutions into a language config.
// Substitutions declared by the language override the shared entry for the same key.
func (c *Catalog) Merge(name string, cfg Config) Config {
	cfg.Language = name
	if len(cfg.Separators) == 0 {
		cfg.Separators = append([]string(nil), c.shared.Separators...)
	}
	subs := make(map[string][]string, len(c.shared.Substitutions)+len(cfg.Substitutions))
	for k, v := range c.shared.Substitutions {
		subs[k] = append([]string(nil), v...)
	}
	for k, v := range cfg.Substitutions {
		subs[k] = append([]string(nil), v...)
	}
	cfg.Substitutions = subs
	cfg.Normalize()
	return cfg
}

// Resolve maps an empty name to the default language and rejects unknown names.
func (c *Catalog) Resolve(name string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return c.shared.DefaultLanguage, nil
	}
	if _, ok := c.langs[name]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}
	return name, nil
}

// Language returns a copy of the config for name.
func (c *Catalog) Language(name string) (Config, error) {
	name, err := c.Resolve(name)
	if err != nil {
		return Config{}, err
	}
	return c.langs[name].Clone(), nil
}

// Languages returns the supported language names in declaration order.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.shared.Languages...)
}

func (c *Catalog) DefaultLanguage() string {
	return c.shared.DefaultLanguage
}
