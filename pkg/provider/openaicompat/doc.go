// Package openaicompat is a small client for OpenAI-compatible Chat
// Completions endpoints. It handles request serialization, response
// parsing and error classification.
//
// Unlike the stock OpenAI wire format, ChatMessage carries an optional
// "parameters" object, which LoRA serving backends read to pick the adapter
// that should answer a user turn.
package openaicompat
