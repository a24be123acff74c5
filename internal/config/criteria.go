package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/bestrev/internal/review"
)

// criteriaPack is the on-disk YAML shape of a criteria file:
//
//	criteria:
//	  - type: quality
//	    criteria: [performance, durability, design]
type criteriaPack struct {
	Criteria []review.CriterionType `yaml:"criteria"`
}

// LoadCriteria reads a criteria pack from a YAML file. An empty path yields
// the built-in default perspectives.
func LoadCriteria(path string) ([]review.CriterionType, error) {
	if path == "" {
		return review.DefaultCriteria(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading criteria file: %w", err)
	}

	var pack criteriaPack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parsing criteria file: %w", err)
	}
	if len(pack.Criteria) == 0 {
		return nil, fmt.Errorf("criteria file %s defines no criteria", path)
	}
	for i, ct := range pack.Criteria {
		if ct.Type == "" {
			return nil, fmt.Errorf("criteria entry %d has no type", i)
		}
		if len(ct.Criteria) == 0 {
			return nil, fmt.Errorf("criteria type %q has no criteria", ct.Type)
		}
	}
	return pack.Criteria, nil
}
