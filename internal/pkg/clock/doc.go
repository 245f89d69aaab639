// Package clock provides a tiny time abstraction.
//
// Code that compares against the current time (TOTP verification, session
// timestamps, token expiry) depends on Clocker so tests can pin the instant
// with FixedClocker.
package clock
