package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/calcbot/internal/curriculum"
	"github.com/abhisek/calcbot/internal/ui/theme"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List curriculum units and skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, _ := cmd.Flags().GetInt("unit")
		units := curriculum.Units()
		if unit != 0 {
			u, err := curriculum.GetUnit(unit)
			if err != nil {
				return fmt.Errorf("unit %d: %w", unit, err)
			}
			units = []curriculum.Unit{u}
		}

		for _, u := range units {
			fmt.Println(theme.Section.Render(u.Title()))
			t := theme.Table("#", "ID", "Skill")
			for _, s := range u.Skills {
				t.Row(strconv.Itoa(s.Number), s.ID, s.Name)
			}
			fmt.Println(t.Render())
		}
		return nil
	},
}

func init() {
	skillsCmd.Flags().IntP("unit", "u", 0, "Only list the skills of this unit")
}
