package view

// Token classes as tagged by the service.
const (
	Consonant = "consonant"
	Vowel     = "vowel"
	Matra     = "matra"
	Special   = "special"
	Compound  = "compound"
)

// DefaultColor is used for any token type outside the known classes.
const DefaultColor = "#e5e7eb"

var tokenColors = map[string]string{
	Consonant: "#e9d5ff", // purple
	Vowel:     "#bfdbfe", // blue
	Matra:     "#fecaca", // red
	Special:   "#fef08a", // yellow
	Compound:  "#bbf7d0", // green
}

// ColorFor maps a token type to its display color. Unknown types get DefaultColor.
func ColorFor(tokenType string) string {
	if c, ok := tokenColors[tokenType]; ok {
		return c
	}
	return DefaultColor
}

// LegendEntry is one row of the token type legend.
type LegendEntry struct {
	Type  string
	Label string
	Color string
}

// Legend lists the known token classes in display order.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Consonant, "Consonant", ColorFor(Consonant)},
		{Vowel, "Vowel", ColorFor(Vowel)},
		{Matra, "Matra", ColorFor(Matra)},
		{Special, "Special", ColorFor(Special)},
		{Compound, "Compound", ColorFor(Compound)},
	}
}
