// Package clientip resolves the originating client address of an HTTP request.
//
// The address feeds per-IP rate limiting, so which proxy headers are honoured
// matters: a header the edge does not overwrite can be forged by the client.
// GetIP trusts DefaultHeaders, suitable behind Cloudflare or DigitalOcean. A
// service exposed directly should use NewResolver() with no headers.
//
//	res := clientip.NewResolver("X-Forwarded-For")
//	r.Use(res.Middleware)
//
//	ip := clientip.GetIPFromContext(r.Context())
package clientip
