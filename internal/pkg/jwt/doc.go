// Package jwt issues and verifies the HS512 access tokens that bind a
// request to its two-factor login session.
package jwt
