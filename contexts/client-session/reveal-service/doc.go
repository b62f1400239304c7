// Package revealservice is the client-side workflow layer: it sequences
// input encryption, ledger writes, decryption-grant acquisition, and
// reveals. Grants are cached in memory per (user, contract set) and
// expire lazily; sessions enforce single-flight discipline so duplicate
// submissions and redundant signature prompts cannot happen.
package revealservice
