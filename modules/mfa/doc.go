// Package mfa exposes the MFA service as a JSON API on a chi router.
//
// Routes, relative to the mount point:
//
//	POST /enroll                      bearer
//	POST /verify-setup                bearer  {"code", "challenge_id"}
//	POST /authenticate                none    {"user_id", "code", "session_id"}
//	POST /validate-recovery           none    {"user_id", "code", "session_id"}
//	POST /disable                     bearer  {"code"} (optional)
//	GET  /status                      bearer
//	POST /recovery-codes/regenerate   bearer  {"code"}
//
// Successful responses use {"data": ...}; errors use {"error": {"code", "message"}}
// where code is the service error kind. Responses carrying secrets or recovery
// codes are sent with Cache-Control: no-store.
package mfa
