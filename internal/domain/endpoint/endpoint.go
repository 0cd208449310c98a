// Package endpoint maps object types to the REST endpoints that resolve them.
package endpoint

import (
	"github.com/garyjia/merchant-webhook/internal/domain/event"
)

// Variable names understood by the endpoint templates
const (
	ServerKey      = "server"
	AccessTokenKey = "access_token"
	AppKey         = "aId"
	CustomerKey    = "customerId"
	ItemKey        = "itemId"
	OrderKey       = "orderId"
	PaymentKey     = "payId"
	MerchantKey    = "mId"
)

// REST URL templates, see https://www.clover.com/api_docs
const (
	V3GetAppBillingInfo = "{server}/v3/apps/{aId}/merchants/{mId}/billing_info?access_token={access_token}"
	V3GetCustomer       = "{server}/v3/merchants/{mId}/customers/{customerId}?access_token={access_token}"
	V3GetInventoryItem  = "{server}/v3/merchants/{mId}/items/{itemId}?access_token={access_token}"
	V3GetSingleOrder    = "{server}/v3/merchants/{mId}/orders/{orderId}?access_token={access_token}"
	V3GetPayment        = "{server}/v3/merchants/{mId}/payments/{payId}?access_token={access_token}"
	V3GetMerchant       = "{server}/v3/merchants/{mId}?access_token={access_token}"
)

// Endpoint is the URL template for an object type and the variable that receives the object id
type Endpoint struct {
	Template    string
	Placeholder string
}

var endpoints = map[event.ObjectType]Endpoint{
	event.ObjectTypeApp:       {Template: V3GetAppBillingInfo, Placeholder: AppKey},
	event.ObjectTypeCustomer:  {Template: V3GetCustomer, Placeholder: CustomerKey},
	event.ObjectTypeInventory: {Template: V3GetInventoryItem, Placeholder: ItemKey},
	event.ObjectTypeOrder:     {Template: V3GetSingleOrder, Placeholder: OrderKey},
	event.ObjectTypePayment:   {Template: V3GetPayment, Placeholder: PaymentKey},
	// Merchant objects are addressed by the merchant id itself
	event.ObjectTypeMerchant: {Template: V3GetMerchant, Placeholder: MerchantKey},
}

// For returns the endpoint for an object type
func For(t event.ObjectType) (Endpoint, bool) {
	ep, ok := endpoints[t]
	return ep, ok
}

// Vars is a placeholder name to value mapping used to fill templates
type Vars map[string]string

// NewVars returns the base variable set for a server
func NewVars(server string) Vars {
	return Vars{ServerKey: server}
}

// With returns a copy of v with the given pairs added; v is left untouched
func (v Vars) With(keysAndValues ...string) Vars {
	out := make(Vars, len(v)+len(keysAndValues)/2)
	for k, val := range v {
		out[k] = val
	}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[keysAndValues[i]] = keysAndValues[i+1]
	}
	return out
}

// Resolve fills the endpoint template for a reference using vars.
// The reference id is bound to the endpoint's placeholder on a copy of vars.
func Resolve(ref event.ObjectRef, vars Vars) (string, error) {
	ep, ok := For(ref.Type)
	if !ok {
		return "", &event.ObjectRefError{Ref: ref.String(), Err: event.ErrUnknownObjectType}
	}
	return Substitute(ep.Template, vars.With(ep.Placeholder, ref.ID)), nil
}
