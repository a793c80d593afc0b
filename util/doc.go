// Package util contains file and logging helpers shared by the readers and
// commands in this module.
package util
