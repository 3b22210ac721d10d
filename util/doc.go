// Package util holds small helpers shared by configuration and logging
// code: byte-size strings and secret masking.
package util
