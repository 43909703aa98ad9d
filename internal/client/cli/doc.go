// Package cli provides the storefront command-line client.
//
// Commands:
//   - register / login: authenticate and save the session token
//   - logout: forget the saved token
//   - get <path>: GET any API path with the saved token, printing JSON
//   - upload <file>: upload a product image through a presigned URL
//   - ping: check that the server is reachable
//
// Passwords are read from the terminal without echo, or from stdin with
// --password-stdin.
package cli
