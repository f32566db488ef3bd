// Package provider defines the interface an evaluation harness uses to
// sample text from a hosted model. Each adapter implementation (e.g.,
// predibase) handles its own backend protocol and failure handling
// internally; the harness only sees conversations in and text out.
package provider
