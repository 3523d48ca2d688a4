package core

import (
	"strings"

	"chem-datapackager/internal/types"
)

const (
	cifDataPrefix           = "data_"
	cifCitationTitle        = "_citation_title"
	cifFormulaStructural    = "_chemical_formula_structural"
	cifFormulaSum           = "_chemical_formula_sum"
	cifNameCommon           = "_chemical_name_common"
	cifAuthorName           = "_citation_author_name"
	cifAuthorPrimary        = "primary"
	cifTextDelimiter        = ";"
	cifSpaceGroupHM         = "_space_group_name_H-M"
	cifSymmetrySpaceHM      = "_symmetry_space_group_name_H-M"
	cifSpaceGroupIT         = "_space_group_IT_number"
	cifSymmetryIntTables    = "_symmetry_Int_Tables_number"
	ExtraSpaceGroupHM       = "space_group_name_H-M"
	ExtraSpaceGroupITNumber = "space_group_IT_number"
)

// ParseCIF extracts the catalog-relevant fields from a CIF document in a
// single forward pass. Fields that never appear keep their defaults.
func ParseCIF(lines []string) types.CIFDocument {
	doc := types.CIFDocument{
		Identifier:    types.CIFFieldUnset,
		CitationTitle: types.CIFFieldUnset,
		MolFormula:    types.CIFFieldUnset,
		MoleculeName:  types.CIFFieldUnset,
		Authors:       []string{},
		Extras:        map[string]string{},
	}
	formulaFromSum := false
	collectingAuthors := false

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		if collectingAuthors {
			if strings.HasPrefix(line, cifAuthorPrimary) {
				if name := authorName(line); name != "" {
					doc.Authors = append(doc.Authors, name)
				}
				continue
			}
			collectingAuthors = false
		}

		switch {
		case strings.HasPrefix(line, cifDataPrefix):
			doc.Identifier = line
		case strings.HasPrefix(line, cifCitationTitle):
			if inline := strings.TrimSpace(strings.TrimPrefix(line, cifCitationTitle)); inline != "" {
				doc.CitationTitle = fieldValue(line)
				continue
			}
			if title, end, ok := readTextBlock(lines, i+1); ok {
				doc.CitationTitle = title
				i = end
			}
		case strings.HasPrefix(line, cifFormulaStructural):
			if value, ok := markerValue(line, cifFormulaStructural); ok {
				doc.MolFormula = value
				formulaFromSum = false
			}
		case strings.HasPrefix(line, cifFormulaSum):
			if doc.MolFormula == types.CIFFieldUnset || formulaFromSum {
				if value, ok := markerValue(line, cifFormulaSum); ok {
					doc.MolFormula = value
					formulaFromSum = true
				}
			}
		case strings.HasPrefix(line, cifNameCommon):
			if value, ok := markerValue(line, cifNameCommon); ok {
				doc.MoleculeName = value
			}
		case strings.HasPrefix(line, cifAuthorName):
			collectingAuthors = true
		case strings.HasPrefix(line, cifSpaceGroupHM), strings.HasPrefix(line, cifSymmetrySpaceHM):
			if value, ok := markerValue(line, firstToken(line)); ok {
				doc.Extras[ExtraSpaceGroupHM] = value
			}
		case strings.HasPrefix(line, cifSpaceGroupIT), strings.HasPrefix(line, cifSymmetryIntTables):
			if value, ok := markerValue(line, firstToken(line)); ok {
				doc.Extras[ExtraSpaceGroupITNumber] = value
			}
		}
	}
	return doc
}

// readTextBlock skips to the opening ";" delimiter after start, then joins
// the lines up to the closing delimiter with single spaces. It returns the
// index of the last line consumed.
func readTextBlock(lines []string, start int) (string, int, bool) {
	open := -1
	for j := start; j < len(lines); j++ {
		if strings.HasPrefix(strings.TrimSpace(lines[j]), cifTextDelimiter) {
			open = j
			break
		}
	}
	if open < 0 {
		return "", 0, false
	}
	var parts []string
	end := len(lines) - 1
	for j := open + 1; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if strings.HasPrefix(trimmed, cifTextDelimiter) {
			end = j
			break
		}
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " ")), end, true
}

// markerValue returns the value following marker on line. A line holding
// only the marker has no value.
func markerValue(line string, marker string) (string, bool) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, marker))
	if rest == "" {
		return "", false
	}
	return fieldValue(line), true
}

// fieldValue is the text between the first pair of single quotes, or the
// last whitespace-delimited token when the line has no quoted value.
func fieldValue(line string) string {
	if quoted, ok := quotedValue(line); ok {
		return quoted
	}
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[len(tokens)-1]
}

func quotedValue(line string) (string, bool) {
	start := strings.Index(line, "'")
	if start < 0 {
		return "", false
	}
	end := strings.Index(line[start+1:], "'")
	if end < 0 {
		return "", false
	}
	return line[start+1 : start+1+end], true
}

func authorName(line string) string {
	if quoted, ok := quotedValue(line); ok {
		return strings.TrimSpace(quoted)
	}
	return strings.TrimSpace(strings.TrimPrefix(line, cifAuthorPrimary))
}

func firstToken(line string) string {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}
