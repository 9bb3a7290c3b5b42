package cas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "en dash and hyphen", raw: "50–00‐0", want: "50-00-0"},
		{name: "em dash", raw: "50—00-0", want: "50-00-0"},
		{name: "quoted", raw: `"50-00-0"`, want: "50-00-0"},
		{name: "surrounding whitespace", raw: "  50-00-0\t\n", want: "50-00-0"},
		{name: "already canonical", raw: "7732-18-5", want: "7732-18-5"},
		{name: "empty", raw: "", want: ""},
		{name: "only quotes", raw: `""`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(got), "normalize must be idempotent")
		})
	}
}

func TestExtractCandidates(t *testing.T) {
	tests := []struct {
		name string
		cell string
		want []string
	}{
		{
			name: "mixed separators",
			cell: "50-00-0; 64-17-5/71-43-2",
			want: []string{"50-00-0", "64-17-5", "71-43-2"},
		},
		{
			name: "comma and newline",
			cell: "50-00-0,\n64–17-5",
			want: []string{"50-00-0", "64-17-5"},
		},
		{
			name: "single value",
			cell: "50-00-0",
			want: []string{"50-00-0"},
		},
		{
			name: "empty cell",
			cell: "",
			want: []string{},
		},
		{
			name: "separators only",
			cell: " ; , / ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCandidates(tt.cell))
		})
	}
}

func TestCellContains(t *testing.T) {
	assert.True(t, CellContains("71-43-2; 50-00-0", "50-00-0"))
	assert.True(t, CellContains(`"50–00-0"`, "50-00-0"))
	assert.False(t, CellContains("50-00-01", "50-00-0"), "substring must not match")
	assert.False(t, CellContains("", "50-00-0"))
	assert.False(t, CellContains(" ; ", ""), "empty CAS never matches")
}

func TestCellContainsAny(t *testing.T) {
	set := Set([]string{"50-00-0", "64-17-5"})

	assert.True(t, CellContainsAny("7732-18-5/64-17-5", set))
	assert.False(t, CellContainsAny("7732-18-5", set))
	assert.False(t, CellContainsAny("", set))
}

func TestNormalizeAll(t *testing.T) {
	got := NormalizeAll([]string{" 50-00-0", "", "64–17–5", `"50-00-0"`, "  "})
	assert.Equal(t, []string{"50-00-0", "64-17-5"}, got)
}
