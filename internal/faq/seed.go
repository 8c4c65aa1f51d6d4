package faq

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk FAQ seed format:
//
//	faqs:
//	  - id: fee-1
//	    language: en
//	    category: fees
//	    question: What is the admission fee?
//	    answer: ...
//	    keywords: [admission, fee]
type seedFile struct {
	FAQs []Entry `yaml:"faqs"`
}

// LoadSeedFile reads and validates FAQ entries from a YAML file.
func LoadSeedFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	for i := range f.FAQs {
		if err := f.FAQs[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed entry %d (%q): %w", i, f.FAQs[i].Question, err)
		}
	}
	return f.FAQs, nil
}
