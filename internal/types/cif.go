package types

const CIFFieldUnset = "N/A"

type CIFDocument struct {
	Identifier    string
	CitationTitle string
	MolFormula    string
	MoleculeName  string
	Authors       []string
	Extras        map[string]string
}
