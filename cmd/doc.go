// Package cmd provides the command-line interface for sitecsp.
//
// Commands are built with Cobra and read their settings through Viper, so
// every option can come from .sitecsp.yml, a SITECSP_ environment variable
// or a flag.
//
// # Available Commands
//
//   - process: Embed a policy into a single document, from a file or stdin
//   - build: Rewrite every HTML page below a site directory
//   - watch: Build once, then rewrite pages as the site generator updates them
//   - config: Show or validate the resolved configuration
//   - version: Show build information
//
// # Command Examples
//
//	// Process one page and print the result
//	sitecsp process index.html
//
//	// Rewrite a Jekyll site with 8 workers and export metrics
//	sitecsp build _site --workers 8 --metrics-file csp.prom
//
//	// Keep a Hugo site up to date while `hugo` rebuilds it
//	sitecsp watch public
//
// Output files are written atomically and only when their content changes,
// so running a command twice leaves the site untouched the second time.
package cmd
