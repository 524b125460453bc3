// Package target is the page-side SDK. It plays the role the injected
// browser script plays in production: hold the page as a mutable
// document, apply studio commands to it, and report every inline style
// change with its pre-change value. Having it in-process makes the
// whole studio-to-page round trip testable without a browser.
package target
