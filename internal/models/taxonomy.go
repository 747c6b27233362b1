package models

// TaxonomyGroup is one top-level group and its leaf categories.
type TaxonomyGroup struct {
	Name   string
	Leaves []string
}

// DefaultTaxonomy is the fixed two-level category taxonomy seeded for every
// owner on first use.
var DefaultTaxonomy = []TaxonomyGroup{
	{Name: "Food", Leaves: []string{CategoryGroceries, "Restaurants", CategoryBakeryCoffee, "Alcohol & Wine"}},
	{Name: "Home", Leaves: []string{"Mortgage", "Condo Fees", "Property Tax", CategoryUtilities, "Home Maintenance & Repairs", CategoryFurniture}},
	{Name: "Transportation", Leaves: []string{CategoryGasFuel, "Car Maintenance & Registration", "Insurance", "Parking", CategoryPublicTransit}},
	{Name: "Kids", Leaves: []string{"School & Education", CategorySports, "Camps & Lessons", "Equipment"}},
	{Name: "Pets", Leaves: []string{"Pet Food & Care"}},
	{Name: "Entertainment", Leaves: []string{"Entertainment", CategorySubscriptions, "Activities & Recreation", "Tickets & Events"}},
	{Name: "Shopping", Leaves: []string{CategoryGeneralShopping, CategoryElectronics, "Cosmetics & Personal Care", "Clothing", "Gifts & Presents"}},
	{Name: "Health", Leaves: []string{"Pharmacy & Medical", "Dentist & Dental"}},
	{Name: "Travel", Leaves: []string{"Travel & Vacation"}},
	{Name: GroupPersonal, Leaves: []string{CategoryPersonal}},
	{Name: GroupTransfersPayments, Leaves: []string{CategoryCreditCardPayments, CategoryTransfers}},
}

// DefaultCategories flattens DefaultTaxonomy into categories for owner.
func DefaultCategories(owner OwnerID) []Category {
	var out []Category
	for _, group := range DefaultTaxonomy {
		for _, leaf := range group.Leaves {
			out = append(out, Category{Owner: owner, Name: leaf, Group: group.Name})
		}
	}
	return out
}

// GroupOf returns the taxonomy group of a leaf name, or "" when the leaf is
// not part of the default taxonomy.
func GroupOf(leaf string) string {
	for _, group := range DefaultTaxonomy {
		for _, l := range group.Leaves {
			if l == leaf {
				return group.Name
			}
		}
	}
	return ""
}
