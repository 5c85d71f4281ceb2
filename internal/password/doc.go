// Package password hashes and verifies user passwords.
//
// New hashes are argon2id in PHC string format. Verification also accepts argon2i
// and bcrypt hashes so that records created by older deployments keep working;
// [Argon2.NeedsRehash] reports true for those, and for argon2id hashes produced
// with weaker cost parameters, so callers can upgrade them after a successful login.
//
// The package does not store passwords or apply composition rules.
package password
