// Package badgeservice implements achievement badges unlocked by the
// ledger streak counter: per-level eligibility recomputed on read, an
// at-most-once claim per (user, level), and an administrative revoke path.
// Claim and revoke events flow through a transactional outbox.
package badgeservice
