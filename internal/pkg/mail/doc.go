// Package mail sends e-mail such as security notices.
//
// Use cases depend on the Mail interface; SMTP is the only delivery
// implementation.
package mail
