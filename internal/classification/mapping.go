package classification

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Veraticus/toxref/internal/model"
)

// ErrRuleFailed marks a source rule that could not be evaluated on a row.
var ErrRuleFailed = errors.New("rule evaluation failed")

// CMRColumns maps generic hazard columns, present in any source, to the CMR
// category they set.
var CMRColumns = map[string]model.HazardCategory{
	"Carcinogenicity":        model.Carcinogen,
	"Germ cell mutagenicity": model.Mutagen,
	"Reproductive toxicity":  model.Reprotoxic,
}

// PERules set PersistentEndocrine for the endocrine disruptor lists.
var PERules = map[string]Rule{
	"BKH_DHI":    valueIn("Category", "CAT1", "CAT2"),
	"DEDuCT":     valueIn("Category", "I", "II", "III", "IV"),
	"EU_EDlists": valueIn("List", "List I", "List II", "List III"),
	"SINList": func(row model.SourceRow) bool {
		concern := strings.ToLower(row.Value("Health and environmental concern"))
		return strings.Contains(concern, "endocrine disruptor")
	},
	// Every TEDX entry is a potential endocrine disruptor.
	"TEDX": func(model.SourceRow) bool { return true },
	"USEPA_PE": func(row model.SourceRow) bool {
		liste := strings.TrimSpace(row.Value("Liste"))
		return liste != "Liste 1 (No evidence)" && liste != "Liste 2"
	},
}

// SensitizerSources are the regulatory label sources (CLP and GHS variants)
// whose sensitization columns set the PE/Sens flags.
var SensitizerSources = []string{"CLP", "GHS_Japan", "GHS_Korea", "GHS_Australia", "GHS_China"}

// Sensitization columns of the label sources.
const (
	ColumnRespiratorySensitization = "Respiratory sensitization"
	ColumnSkinSensitization        = "Skin sensitization"
)

// RespiratorySensitizerRules and SkinSensitizerRules cover sources other than
// the label sources.
var (
	RespiratorySensitizerRules = map[string]Rule{
		"MAK_Allergens": valueIn("Designation", "(Sah)", "(Sa)"),
	}
	SkinSensitizerRules = map[string]Rule{
		"MAK_Allergens": valueIn("Designation", "(Sah)", "(Sh)"),
	}
)

// ExcludedColumns lists per-source identifying columns that duplicate the
// top-level substance name and are left out of details and exports.
var ExcludedColumns = map[string][]string{
	"ACGIH":             {"Substance"},
	"BKH_DHI":           {"Substance Name"},
	"DEDuCT":            {"Substance name"},
	"IARC":              {"Agent"},
	"MAK_Allergens":     {"Substance name"},
	"MAK_Carcinogens":   {"Substance name"},
	"NTP_Carcinogens":   {"NAME OR SYNONYM"},
	"SINList":           {"EC Number", "Name", "Synonyms"},
	"TEDX":              {"Chemical Name", "Alternative Names"},
	"USEPA_Carcinogens": {"CHEMICAL NAME"},
	"USEPA_PE":          {"Chemical Name"},
}

// IsExcluded reports whether column is left out of a table's details.
func IsExcluded(table, column string) bool {
	return slices.Contains(ExcludedColumns[table], column)
}

// IsDetailColumn reports whether column belongs in the per-source details:
// neither an identifier nor excluded for the table.
func IsDetailColumn(table, column string) bool {
	if column == model.ColumnCAS || column == model.ColumnSubstanceName {
		return false
	}
	return !IsExcluded(table, column)
}

// Derivation is what one matching row contributes to a record.
type Derivation struct {
	Categories []model.HazardCategory
	Errors     []error
}

func (d *Derivation) add(c model.HazardCategory) {
	if !slices.Contains(d.Categories, c) {
		d.Categories = append(d.Categories, c)
	}
}

func (d *Derivation) apply(table string, rule Rule, row model.SourceRow, c model.HazardCategory) {
	fired, err := EvaluateRule(rule, row)
	if err != nil {
		d.Errors = append(d.Errors, fmt.Errorf("%s: %w", table, err))
		return
	}
	if fired {
		d.add(c)
	}
}

// RuleSet holds the source-specific rules Derive evaluates, keyed by table.
type RuleSet struct {
	Carcinogen            map[string]Rule
	PersistentEndocrine   map[string]Rule
	RespiratorySensitizer map[string]Rule
	SkinSensitizer        map[string]Rule
}

var builtinRules = RuleSet{
	Carcinogen:            CarcinogenRules,
	PersistentEndocrine:   PERules,
	RespiratorySensitizer: RespiratorySensitizerRules,
	SkinSensitizer:        SkinSensitizerRules,
}

// DefaultRules returns a copy of the built-in rule tables that the caller may
// modify.
func DefaultRules() RuleSet {
	return RuleSet{
		Carcinogen:            maps.Clone(CarcinogenRules),
		PersistentEndocrine:   maps.Clone(PERules),
		RespiratorySensitizer: maps.Clone(RespiratorySensitizerRules),
		SkinSensitizer:        maps.Clone(SkinSensitizerRules),
	}
}

// Derive evaluates the generic column mapping and the built-in rules of
// table against one matching row.
func Derive(table string, row model.SourceRow) Derivation {
	return builtinRules.Derive(table, row)
}

// Derive is the package Derive over the rules of rs.
func (rs RuleSet) Derive(table string, row model.SourceRow) Derivation {
	var d Derivation

	for _, f := range row.Fields {
		if c, ok := CMRColumns[f.Name]; ok && IsClassified(f.Value, !f.Null) {
			d.add(c)
		}
	}

	if rule, ok := rs.Carcinogen[table]; ok {
		d.apply(table, rule, row, model.Carcinogen)
	}
	if rule, ok := rs.PersistentEndocrine[table]; ok {
		d.apply(table, rule, row, model.PersistentEndocrine)
	}

	if slices.Contains(SensitizerSources, table) {
		if IsClassifiedField(row, ColumnRespiratorySensitization) {
			d.add(model.RespiratorySensitizer)
		}
		if IsClassifiedField(row, ColumnSkinSensitization) {
			d.add(model.SkinSensitizer)
		}
	}
	if rule, ok := rs.RespiratorySensitizer[table]; ok {
		d.apply(table, rule, row, model.RespiratorySensitizer)
	}
	if rule, ok := rs.SkinSensitizer[table]; ok {
		d.apply(table, rule, row, model.SkinSensitizer)
	}

	return d
}
