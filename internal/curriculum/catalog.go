package curriculum

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownUnit  = errors.New("unknown unit")
	ErrUnknownSkill = errors.New("unknown skill")
	ErrInvalidRange = errors.New("invalid unit range")
)

//go:embed units.yaml
var unitsYAML []byte

// catalog holds the loaded units with lookup indices.
type catalog struct {
	units      []Unit
	byNumber   map[int]*Unit
	skillIndex map[string]Skill
	allSkills  []Skill
}

// c is the package-level catalog, loaded from the embedded YAML at init.
var c *catalog

func init() {
	cat, err := loadCatalog(unitsYAML)
	if err != nil {
		panic(fmt.Sprintf("curriculum: %v", err))
	}
	c = cat
}

// loadCatalog parses and indexes a units document.
func loadCatalog(data []byte) (*catalog, error) {
	var doc struct {
		Units []Unit `yaml:"units"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse units: %w", err)
	}
	if err := validateUnits(doc.Units); err != nil {
		return nil, err
	}

	cat := &catalog{
		units:      doc.Units,
		byNumber:   make(map[int]*Unit, len(doc.Units)),
		skillIndex: make(map[string]Skill),
	}

	slices.SortFunc(cat.units, func(a, b Unit) int { return a.Number - b.Number })

	n := 0
	for i := range cat.units {
		u := &cat.units[i]
		for j := range u.Skills {
			n++
			u.Skills[j].Unit = u.Number
			u.Skills[j].Number = n
			cat.skillIndex[u.Skills[j].ID] = u.Skills[j]
			cat.allSkills = append(cat.allSkills, u.Skills[j])
		}
		cat.byNumber[u.Number] = u
	}
	return cat, nil
}

// validateUnits checks unit numbers and skill ids are unique and non-empty.
func validateUnits(units []Unit) error {
	if len(units) == 0 {
		return errors.New("no units defined")
	}

	var errs []error
	seenUnit := make(map[int]bool, len(units))
	seenSkill := make(map[string]bool)
	for _, u := range units {
		if seenUnit[u.Number] {
			errs = append(errs, fmt.Errorf("duplicate unit number %d", u.Number))
		}
		seenUnit[u.Number] = true
		if strings.TrimSpace(u.Name) == "" {
			errs = append(errs, fmt.Errorf("unit %d has no name", u.Number))
		}
		if len(u.Skills) == 0 {
			errs = append(errs, fmt.Errorf("unit %d has no skills", u.Number))
		}
		for _, s := range u.Skills {
			if s.ID == "" {
				errs = append(errs, fmt.Errorf("unit %d has a skill without an id", u.Number))
				continue
			}
			if seenSkill[s.ID] {
				errs = append(errs, fmt.Errorf("duplicate skill id %q", s.ID))
			}
			seenSkill[s.ID] = true
		}
	}
	return errors.Join(errs...)
}

// Units returns all units ordered by number.
func Units() []Unit {
	return slices.Clone(c.units)
}

// UnitNumbers returns the valid unit numbers in order.
func UnitNumbers() []int {
	nums := make([]int, len(c.units))
	for i, u := range c.units {
		nums[i] = u.Number
	}
	return nums
}

// GetUnit returns a unit by number.
func GetUnit(number int) (Unit, error) {
	u, ok := c.byNumber[number]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %d", ErrUnknownUnit, number)
	}
	return *u, nil
}

// GetSkill returns a skill by id, checking it belongs to the given unit.
func GetSkill(unit int, skillID string) (Skill, error) {
	s, ok := c.skillIndex[skillID]
	if !ok || s.Unit != unit {
		return Skill{}, fmt.Errorf("%w: %q in unit %d", ErrUnknownSkill, skillID, unit)
	}
	return s, nil
}

// LookupSkill returns a skill by id regardless of unit.
func LookupSkill(skillID string) (Skill, error) {
	s, ok := c.skillIndex[skillID]
	if !ok {
		return Skill{}, fmt.Errorf("%w: %q", ErrUnknownSkill, skillID)
	}
	return s, nil
}

// SkillByNumber returns the skill at a global 1-based position.
func SkillByNumber(n int) (Skill, error) {
	if n < 1 || n > len(c.allSkills) {
		return Skill{}, fmt.Errorf("%w: number %d", ErrUnknownSkill, n)
	}
	return c.allSkills[n-1], nil
}

// AllSkills returns every skill in curriculum order.
func AllSkills() []Skill {
	return slices.Clone(c.allSkills)
}

// RandomSkill picks a skill of the unit uniformly at random.
func RandomSkill(unit int, rng *rand.Rand) (Skill, error) {
	u, err := GetUnit(unit)
	if err != nil {
		return Skill{}, err
	}
	return u.Skills[rng.IntN(len(u.Skills))], nil
}

// ParseUnitSelector parses "3" or "2-5" into the listed unit numbers.
// Every unit in the result exists in the catalog.
func ParseUnitSelector(sel string) ([]int, error) {
	sel = strings.TrimSpace(sel)
	lo, hi, isRange := strings.Cut(sel, "-")
	if !isRange {
		n, err := strconv.Atoi(sel)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRange, sel)
		}
		if _, err := GetUnit(n); err != nil {
			return nil, err
		}
		return []int{n}, nil
	}

	start, err1 := strconv.Atoi(strings.TrimSpace(lo))
	end, err2 := strconv.Atoi(strings.TrimSpace(hi))
	if err1 != nil || err2 != nil || start > end {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRange, sel)
	}

	units := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		if _, err := GetUnit(n); err != nil {
			return nil, err
		}
		units = append(units, n)
	}
	return units, nil
}
