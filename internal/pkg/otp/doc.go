// Package otp implements HOTP (RFC 4226) and TOTP (RFC 6238) code
// computation together with a drift-tolerant verifier.
//
// The code functions are pure and safe for concurrent use. A Verifier holds
// mutable drift state and is meant to be built fresh for every verification
// attempt.
//
// Provisioning URIs and QR images for authenticator apps are produced with
// github.com/pquerna/otp.
package otp
