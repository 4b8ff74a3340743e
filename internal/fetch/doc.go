// Package fetch provides the outbound HTTP primitive shared by every
// scraper call site: a GET with a fixed per-request timeout, a realistic
// browser User-Agent, and retry with increasing delay on transient failure.
//
// Exhausted retries surface as an ordinary error return. Callers are
// expected to degrade (empty result set or fallback data) rather than
// abort the scrape.
package fetch
