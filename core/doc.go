// Package core contains canonical marketplace domain contracts, entities,
// and configuration. Lower-level adapters must depend on this package;
// core must not depend on storage or transport adapters.
package core
