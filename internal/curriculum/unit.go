package curriculum

import "fmt"

// Unit is one AP Calculus BC unit with its ordered skills.
type Unit struct {
	Number int     `yaml:"number"`
	Name   string  `yaml:"name"`
	Skills []Skill `yaml:"skills"`
}

// Title returns the unit heading used in listings, e.g. "Unit 1: Limits and Continuity".
func (u Unit) Title() string {
	return fmt.Sprintf("Unit %d: %s", u.Number, u.Name)
}

// Skill is a single tagged skill inside a unit.
type Skill struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Unit is the owning unit number. Filled in when the catalog loads.
	Unit int `yaml:"-"`

	// Number is the 1-based position of the skill across the whole
	// curriculum, in unit order.
	Number int `yaml:"-"`
}
