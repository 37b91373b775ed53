package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/safekvo/safekvo-go/pkg/kvo"
	"gopkg.in/yaml.v3"
)

// ParseScenario parses a scenario from YAML bytes.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}

	if err := validate(&sc); err != nil {
		return nil, err
	}

	return &sc, nil
}

// validate checks required fields and cross references.
func validate(sc *Scenario) error {
	if sc.ID == "" {
		return &LoadError{Message: "scenario ID is required"}
	}
	if len(sc.Steps) == 0 {
		return &LoadError{Message: "scenario must have at least one step"}
	}

	names := make(map[string]bool, len(sc.Objects))
	for _, obj := range sc.Objects {
		if obj.Name == "" {
			return &LoadError{Message: "object name is required"}
		}
		if names[obj.Name] {
			return &LoadError{Message: fmt.Sprintf("duplicate object %q", obj.Name)}
		}
		names[obj.Name] = true

		for _, attr := range obj.Attributes {
			if _, err := kvo.ParseDataType(attr.Type); err != nil {
				return &LoadError{
					Message: fmt.Sprintf("object %q attribute %q", obj.Name, attr.Key),
					Cause:   err,
				}
			}
		}
	}

	for i, step := range sc.Steps {
		if !knownActions[step.Action] {
			return &LoadError{Message: fmt.Sprintf("step %d: unknown action %q", i+1, step.Action)}
		}
		for _, param := range []string{"observer", "target", "object"} {
			ref, ok := step.Params[param].(string)
			if ok && !names[ref] {
				return &LoadError{Message: fmt.Sprintf("step %d: %s %q is not declared", i+1, param, ref)}
			}
		}
	}

	return nil
}

// LoadScenario loads a scenario from a file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	sc, err := ParseScenario(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{
			File:    path,
			Message: err.Error(),
		}
	}

	return sc, nil
}

// LoadDirectory loads all scenarios from a directory, sorted by file name.
// Only files with .yaml or .yml extensions are loaded.
func LoadDirectory(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{
			File:    dir,
			Message: "failed to read directory",
			Cause:   err,
		}
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(files)

	scenarios := make([]*Scenario, 0, len(files))
	for _, path := range files {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}

	return scenarios, nil
}
