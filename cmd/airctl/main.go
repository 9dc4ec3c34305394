// Command airctl sends test requests to an airouter instance.
package main

import (
	"fmt"
	"os"
	"time"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/spf13/cobra"
)

type clientFlags struct {
	apiKey string
	url    string
	model  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "airctl:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cf := &clientFlags{}
	root := &cobra.Command{
		Use:           "airctl",
		Short:         "Client for the airouter OpenAI-compatible API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&cf.apiKey, "api-key", "a", "test", "API key sent as bearer token")
	pf.StringVarP(&cf.url, "url", "u", "http://localhost:3000/v1", "Base URL of the API")
	pf.StringVarP(&cf.model, "model", "m", "", "Model name (defaults per command)")
	root.AddCommand(newEmbedCmd(cf), newChatCmd(cf))
	return root
}

func (cf *clientFlags) client() oai.Client {
	return oai.NewClient(
		option.WithAPIKey(cf.apiKey),
		option.WithBaseURL(cf.url),
		option.WithMaxRetries(0),
	)
}

func (cf *clientFlags) modelOr(def string) string {
	if cf.model != "" {
		return cf.model
	}
	return def
}

func newEmbedCmd(cf *clientFlags) *cobra.Command {
	var inputs []string
	cmd := &cobra.Command{
		Use:     "embed",
		Short:   "Create embeddings and print the vectors",
		Example: "  airctl embed -i 'first text' -i 'second text'",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := oai.EmbeddingNewParams{Model: cf.modelOr("BAAI/bge-large-en-v1.5")}
			if len(inputs) == 1 {
				params.Input.OfString = oai.String(inputs[0])
			} else {
				params.Input.OfArrayOfStrings = inputs
			}
			client := cf.client()
			start := time.Now()
			resp, err := client.Embeddings.New(cmd.Context(), params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range resp.Data {
				fmt.Fprintf(out, "%d: dims=%d head=%v\n", e.Index, len(e.Embedding), head(e.Embedding, 4))
			}
			fmt.Fprintf(out, "request took %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Text to embed (repeatable)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newChatCmd(cf *clientFlags) *cobra.Command {
	var (
		system    string
		maxTokens int64
		stream    bool
	)
	cmd := &cobra.Command{
		Use:     "chat PROMPT",
		Short:   "Send one chat message and print the reply",
		Example: "  airctl chat --stream 'Tell me a joke'",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := oai.ChatCompletionNewParams{Model: cf.modelOr("meta-llama/Llama-2-70b-chat-hf")}
			if system != "" {
				params.Messages = append(params.Messages, oai.SystemMessage(system))
			}
			params.Messages = append(params.Messages, oai.UserMessage(args[0]))
			if maxTokens > 0 {
				params.MaxTokens = oai.Int(maxTokens)
			}
			client := cf.client()
			out := cmd.OutOrStdout()
			start := time.Now()
			if !stream {
				resp, err := client.Chat.Completions.New(cmd.Context(), params)
				if err != nil {
					return err
				}
				for _, c := range resp.Choices {
					fmt.Fprintln(out, c.Message.Content)
				}
				fmt.Fprintf(out, "request took %s\n", time.Since(start).Round(time.Millisecond))
				return nil
			}
			s := client.Chat.Completions.NewStreaming(cmd.Context(), params)
			defer s.Close()
			var first time.Duration
			for s.Next() {
				if first == 0 {
					first = time.Since(start)
				}
				for _, c := range s.Current().Choices {
					fmt.Fprint(out, c.Delta.Content)
				}
			}
			if err := s.Err(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nfirst chunk after %s, request took %s\n", first.Round(time.Millisecond), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&system, "system", "s", "", "Optional system message")
	f.Int64Var(&maxTokens, "max-tokens", 0, "Maximum tokens to generate")
	f.BoolVar(&stream, "stream", false, "Stream the reply")
	return cmd
}

func head(v []float64, n int) []float64 {
	if len(v) < n {
		return v
	}
	return v[:n]
}
