package models

// Category names the pipeline gives special meaning to.
const (
	CategoryGroceries          = "Groceries"
	CategoryBakeryCoffee       = "Bakery & Coffee"
	CategoryFurniture          = "Furniture & Appliances"
	CategoryGasFuel            = "Gas & Fuel"
	CategoryPublicTransit      = "Public Transit"
	CategoryUtilities          = "Utilities"
	CategorySports             = "Sports & Activities"
	CategorySubscriptions      = "Subscriptions"
	CategoryGeneralShopping    = "General Shopping"
	CategoryElectronics        = "Electronics"
	CategoryPersonal           = "Personal"
	CategoryCreditCardPayments = "Credit Card Payments"
	CategoryTransfers          = "Transfers"
)

// Taxonomy groups with special meaning.
const (
	GroupTransfersPayments = "Transfers & Payments"
	GroupPersonal          = "Personal"
)

// Date layout used for storage, fingerprints and export.
const DateLayout = "2006-01-02"

// File permissions
const (
	PermissionFile      = 0600
	PermissionDirectory = 0750
)
