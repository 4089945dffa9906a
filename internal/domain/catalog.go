package domain

// Theme groups related commitments on the pledge form.
type Theme struct {
	Name  string
	Items []string
}

// Catalog is the fixed list of selectable commitments, in display order.
var Catalog = []Theme{
	{
		Name: "Energy Conservation",
		Items: []string{
			"Switch to renewable energy sources",
			"Reduce electricity consumption by 30%",
			"Use energy-efficient appliances",
		},
	},
	{
		Name: "Sustainable Transportation",
		Items: []string{
			"Use public transport or carpool weekly",
			"Cycle or walk for short distances",
			"Switch to electric or hybrid vehicles",
		},
	},
	{
		Name: "Waste Reduction",
		Items: []string{
			"Eliminate single-use plastics",
			"Compost organic waste regularly",
			"Practice recycling and upcycling",
		},
	},
}

var catalogIndex = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, t := range Catalog {
		for _, it := range t.Items {
			m[it] = struct{}{}
		}
	}
	return m
}()

// InCatalog reports whether item is one of the predefined commitments.
func InCatalog(item string) bool {
	_, ok := catalogIndex[item]
	return ok
}
