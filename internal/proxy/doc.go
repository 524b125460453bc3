// Package proxy fetches third-party pages and re-serves them from our
// origin so the studio can frame and instrument them.
//
// A proxied page is rewritten (relative URLs absolutized against the
// upstream origin) and instrumented (the bootstrap script inlined
// before </body>). Frame-blocking upstream headers never reach the
// client; the response carries X-Frame-Options: SAMEORIGIN instead.
// The same bootstrap script is served standalone at /api/bootstrap.js
// for first-party pages that include it with a script tag.
package proxy
