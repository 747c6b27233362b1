package models

import "fjacquet/expense-import/internal/textutils"

// Category is an owner's category. Names are unique per owner.
type Category struct {
	ID    int64
	Owner OwnerID
	Name  string
	Group string
}

// CategorySet is an owner's categories indexed for accent and case
// insensitive lookup.
type CategorySet struct {
	byKey map[string]Category
	order []Category
}

// NewCategorySet indexes categories. Later duplicates of the same folded name
// are ignored.
func NewCategorySet(categories []Category) CategorySet {
	set := CategorySet{byKey: make(map[string]Category, len(categories))}
	for _, c := range categories {
		key := textutils.Fold(c.Name)
		if key == "" {
			continue
		}
		if _, exists := set.byKey[key]; exists {
			continue
		}
		set.byKey[key] = c
		set.order = append(set.order, c)
	}
	return set
}

// Lookup returns the owner's category matching name.
func (s CategorySet) Lookup(name string) (Category, bool) {
	c, ok := s.byKey[textutils.Fold(name)]
	return c, ok
}

// Has reports whether name exists in the set.
func (s CategorySet) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Pick returns the canonical name of the first candidate present in the set,
// or "" when none is.
func (s CategorySet) Pick(candidates ...string) string {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if c, ok := s.Lookup(candidate); ok {
			return c.Name
		}
	}
	return ""
}

// Names lists category names in insertion order.
func (s CategorySet) Names() []string {
	names := make([]string, 0, len(s.order))
	for _, c := range s.order {
		names = append(names, c.Name)
	}
	return names
}

// Len returns the number of categories.
func (s CategorySet) Len() int {
	return len(s.order)
}

// IsTransferCategory reports whether name belongs to the transfers group.
func (s CategorySet) IsTransferCategory(name string) bool {
	if c, ok := s.Lookup(name); ok && c.Group != "" {
		return c.Group == GroupTransfersPayments
	}
	return IsTransferCategoryName(name)
}

// IsTransferCategoryName reports whether name is one of the built-in transfer
// leaves, independent of any owner's set.
func IsTransferCategoryName(name string) bool {
	key := textutils.Fold(name)
	return key == textutils.Fold(CategoryTransfers) || key == textutils.Fold(CategoryCreditCardPayments)
}
