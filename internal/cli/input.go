package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fractastical/icombinators/internal/catalog"
	"github.com/fractastical/icombinators/internal/graph"
	"github.com/fractastical/icombinators/internal/rules"
)

// Input origins.
const (
	OriginFile    = "file"
	OriginCatalog = "catalog"
)

// Input is a molecule resolved from the command line.
type Input struct {
	Name   string // file path or catalogue name
	Origin string // OriginFile or OriginCatalog
	Mol    string // source text
	Graph  *graph.Graph
	Rules  []rules.Rule
}

// loadCatalog returns the built-in catalogue, extended with the CUE
// package in dir when dir is set.
func loadCatalog(dir string) (*catalog.Catalog, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return cat, nil
	}

	extra, err := catalog.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	if err := cat.Merge(extra); err != nil {
		return nil, err
	}
	return cat, nil
}

// loadInput resolves arg as a mol file when such a file exists, otherwise
// as a catalogue name. ruleNames, when given, replace the molecule's
// rules. File inputs default to rules.DefaultRules.
//
// On failure the second result is the CLI error code for the response.
func loadInput(arg, catalogDir string, ruleNames []string) (*Input, string, error) {
	in := &Input{Name: arg}

	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, ErrCodeNotFound, fmt.Errorf("failed to read mol file: %w", err)
		}
		in.Origin = OriginFile
		in.Mol = string(data)
		in.Rules = rules.DefaultRules()
	} else {
		cat, err := loadCatalog(catalogDir)
		if err != nil {
			return nil, ErrCodeCatalog, fmt.Errorf("failed to load catalogue: %w", err)
		}
		m, err := cat.Lookup(arg)
		if err != nil {
			if errors.Is(err, catalog.ErrUnknownMolecule) {
				return nil, ErrCodeNotFound, fmt.Errorf("%w (not a file either)", err)
			}
			return nil, ErrCodeGeneric, err
		}
		in.Origin = OriginCatalog
		in.Name = m.Name
		in.Mol = m.Mol
		if in.Rules, err = m.RuleSet(); err != nil {
			return nil, ErrCodeRules, err
		}
	}

	g, err := graph.Parse(in.Mol)
	if err != nil {
		return nil, ErrCodeParse, err
	}
	in.Graph = g

	if len(ruleNames) > 0 {
		rs, err := rules.ByName(ruleNames...)
		if err != nil {
			return nil, ErrCodeRules, err
		}
		in.Rules = rs
	}
	return in, "", nil
}
