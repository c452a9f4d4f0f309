// Package textutil provides text normalization helpers for building
// filesystem paths from user-supplied artist and title strings.
package textutil
