// Package core contains the whitelist domain contracts, entities and the
// admission coordinator. Storage and remote adapters depend on this package;
// core must not depend on storage-specific or provider-specific adapters.
package core
