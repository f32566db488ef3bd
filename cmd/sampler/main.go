// Command sampler talks to a Predibase LoRA deployment through its
// OpenAI-compatible Chat Completions API.
//
// Subcommands:
//
//	sampler generate  - read a conversation (JSON array) and print the reply
//	sampler serve     - expose the sampler over HTTP
//	sampler version   - print the build version
//
// Configuration is loaded from a YAML file (see pkg/config) with
// environment overrides:
//
//	PREDIBASE_API_KEY          - API key (required unless set in the file)
//	LORASAMPLER_BASE_URL       - deployment base URL
//	LORASAMPLER_ADAPTER_ID     - LoRA adapter id, e.g. "my-adapter/3"
//	LORASAMPLER_ADAPTER_SOURCE - adapter repository (default: "pbase")
//	LORASAMPLER_CONFIG         - config file path
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// exitExhausted is the exit status of "generate" when no reply was produced.
const exitExhausted = 2

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if errors.Is(err, errNoReply) {
		fmt.Fprintln(os.Stderr, "sampler: no reply produced")
		os.Exit(exitExhausted)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "sampler:", err)
		os.Exit(1)
	}
}
