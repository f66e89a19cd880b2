// Package cache holds rendered speech audio in memory so repeated phrases
// are not synthesized twice.
package cache
