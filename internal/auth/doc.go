// Package auth registers and authenticates users against a credential store.
//
// [Authenticator] is the only reader and writer of stored password hashes. It
// exposes two operations:
//   - Register hashes a new password and inserts the user, failing with
//     ErrDuplicateUser if the username is taken.
//   - Authenticate verifies a username/password pair. Unknown users and wrong
//     passwords fail with the same ErrInvalidCredentials, and both paths run one
//     hash verification so response time does not reveal which case occurred.
//     After a successful check a hash made under weaker parameters is replaced
//     with one made under the current parameters; a failure to store it is logged
//     and otherwise ignored.
//
// Failures of the store itself surface as ErrStore and are never reported as bad
// credentials.
package auth
