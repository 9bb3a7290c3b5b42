package classification

import (
	"testing"

	"github.com/Veraticus/toxref/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsClassified(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		present bool
		want    bool
	}{
		{name: "absent", value: "", present: false, want: false},
		{name: "empty", value: "", present: true, want: false},
		{name: "dash", value: "-", present: true, want: false},
		{name: "not classified mixed case", value: "Not Classified", present: true, want: false},
		{name: "not applicable variant", value: " not classified (not applicable) ", present: true, want: false},
		{name: "classification not possible", value: "Classification not possible", present: true, want: false},
		{name: "lone comma", value: ",", present: true, want: false},
		{name: "whitespace only", value: "   ", present: true, want: false},
		{name: "category", value: "Category 1A", present: true, want: true},
		{name: "free text", value: "Suspected", present: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsClassified(tt.value, tt.present))
		})
	}
}

func TestIsNamePlaceholder(t *testing.T) {
	assert.True(t, IsNamePlaceholder("-"))
	assert.True(t, IsNamePlaceholder("Not applicable"))
	assert.True(t, IsNamePlaceholder(" not classified "))
	assert.True(t, IsNamePlaceholder(""))
	assert.False(t, IsNamePlaceholder("formaldehyde"))
}

func TestCarcinogenRules(t *testing.T) {
	tests := []struct {
		name  string
		table string
		row   model.SourceRow
		want  bool
	}{
		{name: "IARC group 1", table: "IARC", row: model.RowOf("Group", "1"), want: true},
		{name: "IARC group 2A", table: "IARC", row: model.RowOf("Group", "2A"), want: true},
		{name: "IARC group 3", table: "IARC", row: model.RowOf("Group", " 3 "), want: false},
		{name: "IARC empty group", table: "IARC", row: model.RowOf("Group", ""), want: false},
		{name: "IARC missing group", table: "IARC", row: model.RowOf("Agent", "x"), want: false},
		{
			name:  "USEPA likely",
			table: "USEPA_Carcinogens",
			row:   model.RowOf("WOE DESCRIPTION", "Likely to be carcinogenic to humans"),
			want:  true,
		},
		{
			name:  "USEPA not likely",
			table: "USEPA_Carcinogens",
			row:   model.RowOf("WOE DESCRIPTION", "Not likely to be carcinogenic to humans"),
			want:  false,
		},
		{
			name:  "USEPA class D",
			table: "USEPA_Carcinogens",
			row:   model.RowOf("WOE DESCRIPTION", "D (Not classifiable as to human carcinogenicity)"),
			want:  false,
		},
		{name: "NTP listed", table: "NTP_Carcinogens", row: model.RowOf("Listing", "Known"), want: true},
		{name: "NTP blank", table: "NTP_Carcinogens", row: model.RowOf("Listing", "  "), want: false},
		{name: "MAK category", table: "MAK_Carcinogens", row: model.RowOf("Category", "1"), want: true},
		{name: "ACGIH A2 lower case", table: "ACGIH", row: model.RowOf("Notation", "skin; a2"), want: true},
		{name: "ACGIH A4", table: "ACGIH", row: model.RowOf("Notation", "A4"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := CarcinogenRules[tt.table]
			require.True(t, ok)
			fired, err := EvaluateRule(rule, tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fired)
		})
	}
}

func TestEvaluateRule_RecoversPanics(t *testing.T) {
	rule := func(model.SourceRow) bool {
		var m map[string]int
		m["boom"]++
		return true
	}

	fired, err := EvaluateRule(rule, model.RowOf("CAS", "50-00-0"))
	assert.False(t, fired)
	assert.ErrorIs(t, err, ErrRuleFailed)
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name  string
		table string
		row   model.SourceRow
		want  []model.HazardCategory
	}{
		{
			name:  "generic CMR columns",
			table: "CLP",
			row: model.RowOf(
				"Carcinogenicity", "Carc. 1B",
				"Germ cell mutagenicity", "Not classified",
				"Reproductive toxicity", "Repr. 2",
			),
			want: []model.HazardCategory{model.Carcinogen, model.Reprotoxic},
		},
		{
			name:  "IARC rule alone",
			table: "IARC",
			row:   model.RowOf("Group", "2A"),
			want:  []model.HazardCategory{model.Carcinogen},
		},
		{
			name:  "ACGIH generic and rule both fire once",
			table: "ACGIH",
			row:   model.RowOf("Carcinogenicity", "yes", "Notation", "A1"),
			want:  []model.HazardCategory{model.Carcinogen},
		},
		{
			name:  "BKH category",
			table: "BKH_DHI",
			row:   model.RowOf("Category", "CAT2"),
			want:  []model.HazardCategory{model.PersistentEndocrine},
		},
		{
			name:  "BKH category 3 is not listed",
			table: "BKH_DHI",
			row:   model.RowOf("Category", "CAT3"),
			want:  nil,
		},
		{
			name:  "DEDuCT category",
			table: "DEDuCT",
			row:   model.RowOf("Category", "III"),
			want:  []model.HazardCategory{model.PersistentEndocrine},
		},
		{
			name:  "EU ED list",
			table: "EU_EDlists",
			row:   model.RowOf("List", "List II"),
			want:  []model.HazardCategory{model.PersistentEndocrine},
		},
		{
			name:  "SIN list endocrine disruptor",
			table: "SINList",
			row:   model.RowOf("Health and environmental concern", "CMR; Endocrine Disruptor"),
			want:  []model.HazardCategory{model.PersistentEndocrine},
		},
		{
			name:  "TEDX always",
			table: "TEDX",
			row:   model.RowOf("Chemical Name", "x"),
			want:  []model.HazardCategory{model.PersistentEndocrine},
		},
		{
			name:  "USEPA PE negative list",
			table: "USEPA_PE",
			row:   model.RowOf("Liste", "Liste 2"),
			want:  nil,
		},
		{
			name:  "USEPA PE positive list",
			table: "USEPA_PE",
			row:   model.RowOf("Liste", "Liste 1"),
			want:  []model.HazardCategory{model.PersistentEndocrine},
		},
		{
			name:  "GHS sensitizers",
			table: "GHS_Japan",
			row:   model.RowOf("Respiratory sensitization", "Category 1", "Skin sensitization", "-"),
			want:  []model.HazardCategory{model.RespiratorySensitizer},
		},
		{
			name:  "sensitization columns ignored outside label sources",
			table: "TEDX_like",
			row:   model.RowOf("Respiratory sensitization", "Category 1"),
			want:  nil,
		},
		{
			name:  "MAK Sah sets both",
			table: "MAK_Allergens",
			row:   model.RowOf("Designation", "(Sah)"),
			want:  []model.HazardCategory{model.RespiratorySensitizer, model.SkinSensitizer},
		},
		{
			name:  "MAK Sh sets skin",
			table: "MAK_Allergens",
			row:   model.RowOf("Designation", "(Sh)"),
			want:  []model.HazardCategory{model.SkinSensitizer},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Derive(tt.table, tt.row)
			assert.Empty(t, d.Errors)
			assert.ElementsMatch(t, tt.want, d.Categories)
		})
	}
}

func TestIsDetailColumn(t *testing.T) {
	assert.False(t, IsDetailColumn("CLP", "CAS"))
	assert.False(t, IsDetailColumn("CLP", "Substance Name"))
	assert.False(t, IsDetailColumn("SINList", "Synonyms"))
	assert.False(t, IsDetailColumn("IARC", "Agent"))
	assert.True(t, IsDetailColumn("IARC", "Group"))
	assert.True(t, IsDetailColumn("Unknown", "Agent"))
}

func TestRuleSet_Derive(t *testing.T) {
	rules := DefaultRules()
	rules.Carcinogen["InHouse"] = nonEmpty("Verdict")
	delete(rules.Carcinogen, "IARC")

	iarc := model.RowOf("CAS", "50-00-0", "Group", "1")
	inHouse := model.RowOf("CAS", "50-00-0", "Verdict", "positive")

	assert.Empty(t, rules.Derive("IARC", iarc).Categories)
	assert.Equal(t, []model.HazardCategory{model.Carcinogen}, rules.Derive("InHouse", inHouse).Categories)

	assert.Contains(t, CarcinogenRules, "IARC", "built-in tables are untouched")
	assert.NotContains(t, CarcinogenRules, "InHouse")
	assert.Equal(t, []model.HazardCategory{model.Carcinogen}, Derive("IARC", iarc).Categories)
}
