// Package client is the HTTP client of the storefront API used by the CLI.
package client
