package ward

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/z-reception/backend/internal/analysis/intent"
)

type catalogFile struct {
	Wards []Ward `yaml:"wards"`
}

// LoadFile reads ward wording overrides from a YAML file and merges them over
// Seed. Entries are matched by category; empty fields keep the default wording.
//
//	wards:
//	  - category: emergency
//	    name_prompt: "Emergency desk. Who is the patient?"
func LoadFile(path string) ([]Ward, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ward catalog: %w", err)
	}
	return Parse(raw)
}

// Parse merges YAML overrides over Seed.
func Parse(raw []byte) ([]Ward, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode ward catalog: %w", err)
	}

	wards := Seed()
	for _, override := range file.Wards {
		category, ok := intent.ParseCategory(string(override.Category))
		if !ok {
			return nil, fmt.Errorf("ward catalog: unknown category %q", override.Category)
		}
		for i := range wards {
			if wards[i].Category == category {
				wards[i] = merge(wards[i], override)
			}
		}
	}
	return wards, nil
}

func merge(base, override Ward) Ward {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&base.Name, override.Name)
	pick(&base.Description, override.Description)
	pick(&base.NamePrompt, override.NamePrompt)
	pick(&base.AgePrompt, override.AgePrompt)
	pick(&base.ReasonPrompt, override.ReasonPrompt)
	pick(&base.CompletionSaved, override.CompletionSaved)
	pick(&base.CompletionUnsaved, override.CompletionUnsaved)
	return base
}
