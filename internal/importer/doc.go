// Package importer merges a decoded record model into a destination
// analysis database.
//
// # Merge policy
//
// Functions are created where missing and left untouched where present, so
// re-importing is idempotent. Names overwrite auto-generated destination
// names but never silently replace a user-assigned one: that asymmetry is
// what keeps a merge from destroying manual analyst work. Comments get the
// same protection. Structure merges append members at free offsets and
// never resize or retype an existing member.
//
// What happens on a genuine collision with user data is a Policy choice:
// report (default, conflict recorded), skip (dropped silently), or
// overwrite (explicit opt-in to replace).
//
// # Failure isolation
//
// A run moves through Validating and the four Applying stages; any stage
// may accumulate per-entry errors without halting the run. Only a broken
// model (wrong schema version, nil containers) fails before mutations
// start, and then nothing has been applied.
package importer
