package skills

import (
	"fmt"
	"os"
	"strconv"

	"github.com/tidwall/gjson"
)

type Skill struct {
	Name           string
	Keywords       []string
	IntentPatterns []string
	FilePatterns   []string
	Priority       string
	Description    string
}

type Chain struct {
	Name           string
	TriggerPhrases []string
	Description    string
	Order          []string
}

type ConfidenceLevel struct {
	Icon  string
	Label string
}

// Registry holds the parsed skills-registry.json. Skills and chains
// keep their document order, which decides ties during matching.
type Registry struct {
	Skills           []Skill
	Chains           []Chain
	ConfidenceLevels map[int]ConfidenceLevel
}

func defaultConfidenceLevels() map[int]ConfidenceLevel {
	return map[int]ConfidenceLevel{
		3: {Icon: "***", Label: "REQUIRED"},
		2: {Icon: "**", Label: "RECOMMENDED"},
		1: {Icon: "*", Label: "OPTIONAL"},
	}
}

// LoadRegistry reads and parses the registry file. Callers load per
// invocation and pass the result around; nothing is cached here.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read skills registry: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("skills registry %s is not valid JSON", path)
	}
	doc := gjson.ParseBytes(data)

	reg := &Registry{ConfidenceLevels: defaultConfidenceLevels()}

	doc.Get("skills").ForEach(func(key, value gjson.Result) bool {
		reg.Skills = append(reg.Skills, Skill{
			Name:           key.String(),
			Keywords:       stringValues(value.Get("keywords")),
			IntentPatterns: stringValues(value.Get("intentPatterns")),
			FilePatterns:   stringValues(value.Get("filePatterns")),
			Priority:       value.Get("priority").String(),
			Description:    value.Get("description").String(),
		})
		return true
	})

	doc.Get("chains").ForEach(func(key, value gjson.Result) bool {
		reg.Chains = append(reg.Chains, Chain{
			Name:           key.String(),
			TriggerPhrases: stringValues(value.Get("trigger_phrases")),
			Description:    value.Get("description").String(),
			Order:          stringValues(value.Get("order")),
		})
		return true
	})

	doc.Get("confidence_levels").ForEach(func(key, value gjson.Result) bool {
		n, err := strconv.Atoi(key.String())
		if err != nil {
			return true
		}
		reg.ConfidenceLevels[n] = ConfidenceLevel{
			Icon:  value.Get("icon").String(),
			Label: value.Get("label").String(),
		}
		return true
	})

	return reg, nil
}

// Skill looks a skill up by name, or nil.
func (r *Registry) Skill(name string) *Skill {
	for i := range r.Skills {
		if r.Skills[i].Name == name {
			return &r.Skills[i]
		}
	}
	return nil
}

func (r *Registry) confidence(n int) ConfidenceLevel {
	if level, ok := r.ConfidenceLevels[n]; ok {
		return level
	}
	return ConfidenceLevel{Icon: "**", Label: "RECOMMENDED"}
}

func stringValues(res gjson.Result) []string {
	var out []string
	for _, item := range res.Array() {
		out = append(out, item.String())
	}
	return out
}
