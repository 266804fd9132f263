// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing transcripts, scripted agents and
// observers. They are not intended for production usage.
package testutil
