// Package history persists workflow run outcomes to a local SQLite database
// so past runs can be listed and inspected from the CLI.
package history
