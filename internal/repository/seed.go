package repository

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/intenza/hfeval/internal/repository/models"
)

// SeedFile is the YAML layout used to bootstrap the catalogue tables.
//
//	series:
//	  - name: Cardio
//	    machines: [T100, T200]
//	questions:
//	  - section: Grip
//	    text: Is the handle comfortable?
//	    machines: [T100]
type SeedFile struct {
	Series []struct {
		Name     string   `yaml:"name"`
		Machines []string `yaml:"machines"`
	} `yaml:"series"`
	Questions []struct {
		Section  string   `yaml:"section"`
		Text     string   `yaml:"text"`
		Machines []string `yaml:"machines"`
	} `yaml:"questions"`
}

// ParseSeed decodes a seed document into catalogue rows, preserving file order.
func ParseSeed(data []byte) ([]models.Machine, []models.Question, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, nil, fmt.Errorf("decode seed: %w", err)
	}

	var machines []models.Machine
	for _, s := range seed.Series {
		for _, code := range s.Machines {
			machines = append(machines, models.Machine{Series: s.Name, Code: code})
		}
	}

	questions := make([]models.Question, 0, len(seed.Questions))
	for _, q := range seed.Questions {
		questions = append(questions, models.Question{
			Section:            q.Section,
			Text:               q.Text,
			ApplicableMachines: q.Machines,
		})
	}
	return machines, questions, nil
}

// LoadSeedFile reads and decodes a seed file from disk.
func LoadSeedFile(path string) ([]models.Machine, []models.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}
