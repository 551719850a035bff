package model

import "strings"

// RowGroup is every row sharing one handle. Product-level fields come from
// the first row only.
type RowGroup struct {
	Handle string
	Rows   []Row
}

// GroupByHandle groups rows by trimmed handle, keeping the order in which
// handles first appear. Rows without a handle are returned separately.
func GroupByHandle(rows []Row) (groups []RowGroup, skipped []Row) {
	index := make(map[string]int)
	for _, row := range rows {
		handle := strings.TrimSpace(row.Handle)
		if handle == "" {
			skipped = append(skipped, row)
			continue
		}
		pos, ok := index[handle]
		if !ok {
			pos = len(groups)
			index[handle] = pos
			groups = append(groups, RowGroup{Handle: handle})
		}
		groups[pos].Rows = append(groups[pos].Rows, row)
	}
	return groups, skipped
}

func (g RowGroup) First() Row {
	if len(g.Rows) == 0 {
		return Row{Handle: g.Handle}
	}
	return g.Rows[0]
}

func (g RowGroup) ProductInput() ProductInput {
	first := g.First()
	return ProductInput{
		Handle:          g.Handle,
		Title:           first.Title,
		DescriptionHTML: first.Description,
		Vendor:          first.Vendor,
		ProductType:     first.ProductType,
		Tags:            first.TagList(),
	}
}

// Option derives the declared option: the first row's option name and the
// distinct non-empty values across all rows. Values are deduplicated
// exactly; "Small" and "small" are both kept.
func (g RowGroup) Option() Option {
	name := strings.TrimSpace(g.First().OptionName)
	if name == "" {
		return Option{}
	}
	seen := make(map[string]struct{})
	values := make([]string, 0, len(g.Rows))
	for _, row := range g.Rows {
		value := strings.TrimSpace(row.OptionValue)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	return Option{Name: name, Values: values}
}
