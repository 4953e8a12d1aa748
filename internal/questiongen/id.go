package questiongen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// NewQuestionID returns "{unit}-{skill}-{hex}" with a dash-free random uuid.
func NewQuestionID(unit int, skillID string) string {
	return fmt.Sprintf("%d-%s-%s", unit, skillID, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// ValidQuestionID reports whether id has the form "{unit}-{skill}-{hex}"
// with at least 8 hex digits.
func ValidQuestionID(id string, unit int, skillID string) bool {
	pattern := fmt.Sprintf(`^%d-%s-[0-9A-Fa-f]{8,}$`, unit, regexp.QuoteMeta(skillID))
	ok, err := regexp.MatchString(pattern, id)
	return err == nil && ok
}
