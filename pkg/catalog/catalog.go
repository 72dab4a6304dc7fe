// Package catalog loads the constraint categories and the accepted
// expectation vocabulary from the expectations workbook, and the
// newline-delimited prompt files.
package catalog

import "strings"

// DefaultDefinition stands in for a category with no known definition.
const DefaultDefinition = "No description available"

// ConstraintCategory is a named class of data-quality rule.
type ConstraintCategory struct {
	Name       string
	Definition string
}

// Catalog is the ordered, immutable set of constraint categories.
type Catalog struct {
	categories []ConstraintCategory
	index      map[string]int
}

// NewCatalog builds a catalog in source order. When a name repeats, it keeps
// its first position and takes the later definition.
func NewCatalog(categories []ConstraintCategory) *Catalog {
	c := &Catalog{index: make(map[string]int, len(categories))}
	for _, cat := range categories {
		if i, ok := c.index[cat.Name]; ok {
			c.categories[i].Definition = cat.Definition
			continue
		}
		c.index[cat.Name] = len(c.categories)
		c.categories = append(c.categories, cat)
	}
	return c
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.categories)
}

// Names returns category names in source order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Definition returns the definition of name.
func (c *Catalog) Definition(name string) (string, bool) {
	i, ok := c.index[name]
	if !ok {
		return "", false
	}
	return c.categories[i].Definition, true
}

// DefinitionOrDefault returns the definition of name, or DefaultDefinition
// when name is unknown or its definition is blank.
func (c *Catalog) DefinitionOrDefault(name string) string {
	if def, ok := c.Definition(name); ok && strings.TrimSpace(def) != "" {
		return def
	}
	return DefaultDefinition
}

// ExpectationRow is one row of the accepted-expectations table. An empty
// Category means "same as the previous row".
type ExpectationRow struct {
	Category    string
	Expectation string
}

// ExpectationGroup lists the accepted expectations of one category.
type ExpectationGroup struct {
	Category     string
	Expectations []string
}

// Vocabulary is the accepted expectation vocabulary, grouped by category in
// order of first appearance.
type Vocabulary []ExpectationGroup

// GroupExpectations forward-fills blank categories and groups the rows.
// Rows before the first named category, and rows with no expectation, are dropped.
func GroupExpectations(rows []ExpectationRow) Vocabulary {
	var groups Vocabulary
	index := map[string]int{}
	current := ""

	for _, row := range rows {
		if row.Category != "" {
			current = row.Category
		}
		if current == "" || row.Expectation == "" {
			continue
		}
		i, ok := index[current]
		if !ok {
			i = len(groups)
			index[current] = i
			groups = append(groups, ExpectationGroup{Category: current})
		}
		groups[i].Expectations = append(groups[i].Expectations, row.Expectation)
	}
	return groups
}

// Size returns the total number of accepted expectations.
func (v Vocabulary) Size() int {
	n := 0
	for _, g := range v {
		n += len(g.Expectations)
	}
	return n
}
