package event

// ObjectType identifies the kind of object an update refers to
type ObjectType string

const (
	ObjectTypeApp       ObjectType = "A" // app installed, uninstalled or subscription changed
	ObjectTypeCustomer  ObjectType = "C"
	ObjectTypeInventory ObjectType = "I"
	ObjectTypeOrder     ObjectType = "O"
	ObjectTypePayment   ObjectType = "P"
	ObjectTypeMerchant  ObjectType = "M"
)

// ObjectTypes lists every known object type
var ObjectTypes = []ObjectType{
	ObjectTypeApp,
	ObjectTypeCustomer,
	ObjectTypeInventory,
	ObjectTypeOrder,
	ObjectTypePayment,
	ObjectTypeMerchant,
}

// String returns the string representation of the object type
func (t ObjectType) String() string {
	return string(t)
}

// Name returns a human readable name for the object type
func (t ObjectType) Name() string {
	switch t {
	case ObjectTypeApp:
		return "App"
	case ObjectTypeCustomer:
		return "Customer"
	case ObjectTypeInventory:
		return "Inventory"
	case ObjectTypeOrder:
		return "Order"
	case ObjectTypePayment:
		return "Payment"
	case ObjectTypeMerchant:
		return "Merchant"
	default:
		return "Unknown"
	}
}

// IsValid checks if the object type is one of the defined constants
func (t ObjectType) IsValid() bool {
	switch t {
	case ObjectTypeApp,
		ObjectTypeCustomer,
		ObjectTypeInventory,
		ObjectTypeOrder,
		ObjectTypePayment,
		ObjectTypeMerchant:
		return true
	default:
		return false
	}
}
