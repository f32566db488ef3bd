package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rhuss/lorasampler/pkg/api"
)

// errNoReply signals that the sampler returned an empty reply.
var errNoReply = errors.New("no reply produced")

func newGenerateCmd(configPath *string) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Send a conversation and print the reply",
		Long: `Reads a JSON array of {"role", "content"} messages from --input (or
standard input when the flag is "-" or omitted), sends it to the configured
adapter and prints the reply. Exits with status 2 when every attempt failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := readConversation(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}

			_, adapter, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer adapter.Close()

			out := adapter.Generate(cmd.Context(), conv)
			if out == "" {
				return errNoReply
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", `conversation file, or "-" for stdin`)
	return cmd
}

// readConversation decodes a conversation from path, or from stdin when
// path is "-" or empty.
func readConversation(stdin io.Reader, path string) (api.Conversation, error) {
	r := stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var conv api.Conversation
	if err := json.NewDecoder(r).Decode(&conv); err != nil {
		return nil, fmt.Errorf("decoding conversation: %w", err)
	}
	if err := conv.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversation: %w", err)
	}
	return conv, nil
}
