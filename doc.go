// Package taskmate provides the authentication and task-tracking core of the
// taskmate backend: JWT issuance, a stateful token ledger, and the managers
// the HTTP surface is built from.
//
// Session lifecycle:
//   - Every issued token is recorded in a ledger. Records are flagged expired
//     and revoked in place, never deleted, so a verified token with no live
//     record is treated the same as a forged one.
//   - Authenticating invalidates every prior record for the identity inside
//     the same transaction that records the new token, so at most one session
//     is live per identity at any time.
//   - SessionAuthority.ClearAllSessions sweeps the whole ledger; callers run
//     it at process startup so tokens never outlive a restart.
//
// Request gating:
//   - middleware/gateway validates bearer tokens against the signing key, the
//     identity directory, and the ledger. Failures fall through silently;
//     handlers decide what anonymous callers may do via the guard middleware.
//
// Task events:
//   - Notifier implementations receive task change events best-effort. Errors
//     are logged and never fail the write that triggered them.
package taskmate
