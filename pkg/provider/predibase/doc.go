// Package predibase implements provider.Sampler for Predibase-style LoRA
// serving deployments. These expose an OpenAI-compatible Chat Completions
// API where every user message may name the fine-tuned adapter that should
// answer it, so this adapter delegates HTTP communication to the shared
// openaicompat.Client and only adds message packing and retries.
package predibase
