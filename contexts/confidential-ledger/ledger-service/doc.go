// Package ledgerservice contains the confidential water-saving ledger:
// per-user daily submissions with ciphertext amount handles, plaintext
// streak/day counters, and a homomorphically accumulated running total.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package ledgerservice
