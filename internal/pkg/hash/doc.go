// Package hash provides helpers for hashing and verifying secrets.
//
// Passwords use bcrypt or Argon2id (see NewPassword). Backup codes use the
// deterministic HMACSHA256 so a submitted code can be matched with a single
// indexed equality lookup.
package hash
