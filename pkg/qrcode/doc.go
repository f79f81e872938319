// Package qrcode renders provisioning URIs as PNG QR codes using
// github.com/skip2/go-qrcode.
//
// Renderer.DataURI returns a "data:image/png;base64,..." string that clients
// can drop into an <img> tag, so enrollment responses stay plain JSON.
package qrcode
