package classification

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Veraticus/toxref/internal/model"
)

// Rule is a source-specific predicate evaluated against one matching row.
type Rule func(row model.SourceRow) bool

// usepaNegativeWOE are the USEPA weight-of-evidence descriptions that do not
// indicate carcinogenicity.
var usepaNegativeWOE = []string{
	"D (Not classifiable as to human carcinogenicity)",
	"Carcinogenic potential cannot be determined",
	"Data are inadequate for an assessment of human carcinogenic potential",
	"Not likely to be carcinogenic to humans",
}

// CarcinogenRules set the Carcinogen flag for sources whose verdict is not
// carried by a generic "Carcinogenicity" column. Like the other rule tables it
// is read-only; pass a RuleSet from DefaultRules to change rules.
var CarcinogenRules = map[string]Rule{
	"IARC": func(row model.SourceRow) bool {
		group := strings.TrimSpace(row.Value("Group"))
		return group != "" && group != "3"
	},
	"USEPA_Carcinogens": func(row model.SourceRow) bool {
		woe := strings.TrimSpace(row.Value("WOE DESCRIPTION"))
		return woe != "" && !slices.Contains(usepaNegativeWOE, woe)
	},
	"NTP_Carcinogens": nonEmpty("Listing"),
	"MAK_Carcinogens": nonEmpty("Category"),
	"ACGIH": func(row model.SourceRow) bool {
		notation := strings.ToUpper(row.Value("Notation"))
		for _, code := range []string{"A1", "A2", "A3"} {
			if strings.Contains(notation, code) {
				return true
			}
		}
		return false
	},
}

func nonEmpty(column string) Rule {
	return func(row model.SourceRow) bool {
		return strings.TrimSpace(row.Value(column)) != ""
	}
}

func valueIn(column string, allowed ...string) Rule {
	return func(row model.SourceRow) bool {
		v, ok := row.Get(column)
		return ok && slices.Contains(allowed, v)
	}
}

// EvaluateRule runs rule against row. A panic inside the rule is recovered
// and reported as an error; the rule then counts as not fired.
func EvaluateRule(rule Rule, row model.SourceRow) (fired bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			fired = false
			err = fmt.Errorf("%w: %v", ErrRuleFailed, r)
		}
	}()
	return rule(row), nil
}
