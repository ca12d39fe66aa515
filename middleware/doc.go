// Package middleware provides net/http glue for the assure engine.
package middleware
