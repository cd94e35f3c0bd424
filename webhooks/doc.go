// Package webhooks implements the outbound delivery engine: payload
// signing, single-attempt HTTP delivery, the retry state machine, the
// background sweeper, and the event trigger that gates creation on
// per-store category enablement.
package webhooks
