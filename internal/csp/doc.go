// Package csp generates a Content-Security-Policy for an HTML document and
// embeds it as a single <meta http-equiv="Content-Security-Policy"> element.
//
// A run merges any policy already present in the document, adds 'self' to
// the configured directives, moves style="" attributes into <style> blocks
// so they can be hashed, and then collects sources from the document:
//
//   - <link href> into style-src
//   - remote <img src> directories and url(...) origins into img-src
//   - SHA-256 hashes of <style> blocks into style-src
//   - remote <script src> directories and inline script hashes into script-src
//   - remote <iframe>/<frame> sources into frame-src
//
// Directive and source order is insertion order, and sources are unique per
// directive, so the same input always produces the same policy text.
//
// Basic usage:
//
//	gen := csp.NewGenerator(csp.DefaultConfig())
//	out, err := gen.Run(ctx, page)
package csp
