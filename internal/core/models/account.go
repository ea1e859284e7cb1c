package models

// AccountName identifies one of the seller identities on the marketplace.
type AccountName string

const (
	AccountMain AccountName = "MAIN"
	AccountFBE  AccountName = "FBE"
)

// Account holds one seller identity: endpoint, credential and the name used
// to key its rate-limit buckets. Built once at configuration load and never
// mutated afterwards.
type Account struct {
	Name    AccountName
	BaseURL string
	APIKey  string
}

// ResourceType is a marketplace resource addressed as (resource, action).
type ResourceType string

const (
	ResourceProductOffer ResourceType = "product-offer"
	ResourceOrder        ResourceType = "order"
	ResourceAWB          ResourceType = "awb"
	ResourceRMA          ResourceType = "rma"
)

func (r ResourceType) Valid() bool {
	switch r {
	case ResourceProductOffer, ResourceOrder, ResourceAWB, ResourceRMA:
		return true
	}
	return false
}

// ResourceClass is the rate-limit grouping a resource belongs to. Orders and
// AWBs share the higher "orders" budget, everything else uses "default".
type ResourceClass string

const (
	ClassOrders  ResourceClass = "orders"
	ClassDefault ResourceClass = "default"
)

func (r ResourceType) Class() ResourceClass {
	switch r {
	case ResourceOrder, ResourceAWB:
		return ClassOrders
	default:
		return ClassDefault
	}
}
