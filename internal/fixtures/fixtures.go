// Package fixtures loads sample courtroom cases and the role catalog from YAML
// files and seeds them through the scenario importer.
//
// A fixture tree holds an optional roles.yaml and any number of case files
// under cases/, each shaped like an import document. The default tree is
// embedded in the binary; a directory on disk can replace it.
package fixtures

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/courtroom-studio/engine/internal/models"
	"github.com/courtroom-studio/engine/internal/scenariofile"
	"gopkg.in/yaml.v3"
)

//go:embed data/roles.yaml data/cases/*.yaml
var embedded embed.FS

const (
	rolesFile = "roles.yaml"
	casesDir  = "cases"
)

type RoleSpec struct {
	Name     string `yaml:"name"`
	Color    string `yaml:"color"`
	Icon     string `yaml:"icon"`
	Required bool   `yaml:"required"`
}

// Case is one scenario document. Raw keeps the file bytes for checksumming.
type Case struct {
	Name     string
	Raw      []byte
	Document *scenariofile.Document
}

type Set struct {
	Roles []RoleSpec
	Cases []Case
}

// Embedded returns the fixtures compiled into the binary.
func Embedded() (*Set, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// Dir loads fixtures from a directory on disk.
func Dir(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("fixtures dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fixtures dir: %s is not a directory", dir)
	}
	return Load(os.DirFS(dir))
}

// Load reads a fixture tree. Case files are visited in lexical order.
func Load(fsys fs.FS) (*Set, error) {
	set := &Set{}

	data, err := fs.ReadFile(fsys, rolesFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", rolesFile, err)
	default:
		var catalog struct {
			Roles []RoleSpec `yaml:"roles"`
		}
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("parse %s: %w", rolesFile, err)
		}
		for i, r := range catalog.Roles {
			if strings.TrimSpace(r.Name) == "" {
				return nil, fmt.Errorf("%s: role %d has no name", rolesFile, i+1)
			}
		}
		set.Roles = catalog.Roles
	}

	err = fs.WalkDir(fsys, casesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == casesDir {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := path.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		doc, err := scenariofile.DecodeYAML(raw)
		if err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		set.Cases = append(set.Cases, Case{
			Name:     strings.TrimSuffix(path.Base(p), ext),
			Raw:      raw,
			Document: doc,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Templates converts the catalog to storable role templates.
func (s *Set) Templates() []models.RoleTemplate {
	out := make([]models.RoleTemplate, 0, len(s.Roles))
	for _, r := range s.Roles {
		out = append(out, models.RoleTemplate{
			Name:     strings.TrimSpace(r.Name),
			Color:    r.Color,
			Icon:     r.Icon,
			Required: r.Required,
		})
	}
	return out
}
