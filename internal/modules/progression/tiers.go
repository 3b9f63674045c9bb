package progression

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	MinTier = 1
	MaxTier = 4
)

type Thresholds struct {
	MinMasteryLevel  int     `yaml:"min_mastery_level" json:"min_mastery_level"`
	MinStabilityDays float64 `yaml:"min_stability_days" json:"min_stability_days"`
}

type Tier struct {
	Level     int    `yaml:"level" json:"level"`
	Name      string `yaml:"name" json:"name"`
	Directive string `yaml:"directive" json:"directive"`

	Thresholds `yaml:",inline"`
}

// TierTable is an immutable, ordered set of the four difficulty tiers.
type TierTable struct {
	tiers [MaxTier]Tier
}

func DefaultTierTable() TierTable {
	return TierTable{tiers: [MaxTier]Tier{
		{
			Level:      1,
			Name:       "Foundation",
			Directive:  "Write direct recall questions about single facts, terms and definitions stated in the material. One idea per card, short unambiguous answers.",
			Thresholds: Thresholds{MinMasteryLevel: 1, MinStabilityDays: 1},
		},
		{
			Level:      2,
			Name:       "Understanding",
			Directive:  "Write questions that ask the learner to explain why or how something works, compare related concepts, or restate an idea in their own words.",
			Thresholds: Thresholds{MinMasteryLevel: 2, MinStabilityDays: 7},
		},
		{
			Level:      3,
			Name:       "Application",
			Directive:  "Write questions that apply the material to a new concrete scenario or worked problem the material does not spell out. Answers should show the reasoning steps.",
			Thresholds: Thresholds{MinMasteryLevel: 3, MinStabilityDays: 14},
		},
		{
			Level:      4,
			Name:       "Synthesis",
			Directive:  "Write questions that combine several ideas from the material, evaluate trade-offs, or predict outcomes in edge cases. Answers should justify the conclusion.",
			Thresholds: Thresholds{MinMasteryLevel: 4, MinStabilityDays: 30},
		},
	}}
}

// ClampTier forces a level into [MinTier, MaxTier].
func ClampTier(level int) int {
	if level < MinTier {
		return MinTier
	}
	if level > MaxTier {
		return MaxTier
	}
	return level
}

func (t TierTable) Tier(level int) Tier {
	return t.tiers[ClampTier(level)-1]
}

func (t TierTable) DirectiveFor(level int) string {
	return t.Tier(level).Directive
}

func (t TierTable) ThresholdsFor(level int) Thresholds {
	return t.Tier(level).Thresholds
}

func (t TierTable) Tiers() []Tier {
	out := make([]Tier, 0, MaxTier)
	out = append(out, t.tiers[:]...)
	return out
}

type tierFile struct {
	Tiers []Tier `yaml:"tiers"`
}

// LoadTierTable reads a YAML tier override. An empty path returns the defaults.
// Fields left blank in the file keep their default values.
func LoadTierTable(path string) (TierTable, error) {
	table := DefaultTierTable()
	path = strings.TrimSpace(path)
	if path == "" {
		return table, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return TierTable{}, fmt.Errorf("read tier file: %w", err)
	}
	return ParseTierTable(raw)
}

func ParseTierTable(raw []byte) (TierTable, error) {
	table := DefaultTierTable()
	var f tierFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return TierTable{}, fmt.Errorf("parse tier file: %w", err)
	}
	if len(f.Tiers) != MaxTier {
		return TierTable{}, fmt.Errorf("tier file: want %d tiers, got %d", MaxTier, len(f.Tiers))
	}
	seen := map[int]bool{}
	for _, in := range f.Tiers {
		if in.Level < MinTier || in.Level > MaxTier {
			return TierTable{}, fmt.Errorf("tier file: level %d out of range", in.Level)
		}
		if seen[in.Level] {
			return TierTable{}, fmt.Errorf("tier file: duplicate level %d", in.Level)
		}
		seen[in.Level] = true

		cur := &table.tiers[in.Level-1]
		if s := strings.TrimSpace(in.Name); s != "" {
			cur.Name = s
		}
		if s := strings.TrimSpace(in.Directive); s != "" {
			cur.Directive = s
		}
		if in.MinMasteryLevel > 0 {
			cur.MinMasteryLevel = in.MinMasteryLevel
		}
		if in.MinStabilityDays > 0 {
			cur.MinStabilityDays = in.MinStabilityDays
		}
	}
	for i := 1; i < MaxTier; i++ {
		prev, cur := table.tiers[i-1].Thresholds, table.tiers[i].Thresholds
		if cur.MinMasteryLevel < prev.MinMasteryLevel || cur.MinStabilityDays < prev.MinStabilityDays {
			return TierTable{}, fmt.Errorf("tier file: thresholds for level %d decrease", i+1)
		}
	}
	return table, nil
}
