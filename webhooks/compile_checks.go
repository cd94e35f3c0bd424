package webhooks

import "github.com/goliatone/go-marketplace/core"

var (
	_ core.PayloadSigner  = (*HMACSigner)(nil)
	_ core.DeliveryClient = (*HTTPDeliveryClient)(nil)
	_ BurstController     = (*DefaultBurstController)(nil)
)
