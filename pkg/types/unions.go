package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// StringList accepts either a JSON string or an array of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return errors.New("expected a string or an array of strings")
	}
	*s = many
	return nil
}

// ChatMessage is one conversation turn. Content may be a string or an array
// of content parts; only text parts are kept.
type ChatMessage struct {
	// example: user
	Role string `json:"role" example:"user"`
	// example: Hello!
	Content MessageContent `json:"content" swaggertype:"string" example:"Hello!"`
	Name    string         `json:"name,omitempty"`
}

// Text returns the text content of the message.
func (m ChatMessage) Text() string { return string(m.Content) }

// MessageContent is the flattened text of a message.
type MessageContent string

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (c *MessageContent) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*c = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = MessageContent(s)
		return nil
	}
	var parts []contentPart
	if err := json.Unmarshal(b, &parts); err != nil {
		return errors.New("message content must be a string or an array of content parts")
	}
	var sb strings.Builder
	for _, p := range parts {
		if p.Type == "text" {
			sb.WriteString(p.Text)
		}
	}
	*c = MessageContent(sb.String())
	return nil
}

// EmbeddingInput is the input of an embedding request. Token arrays are
// recognized so they can be rejected explicitly.
type EmbeddingInput struct {
	Texts  []string
	Tokens bool
}

func (e *EmbeddingInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = EmbeddingInput{Texts: []string{s}}
		return nil
	}
	var texts []string
	if err := json.Unmarshal(b, &texts); err == nil {
		*e = EmbeddingInput{Texts: texts}
		return nil
	}
	var tokens []int64
	if err := json.Unmarshal(b, &tokens); err == nil {
		*e = EmbeddingInput{Tokens: true}
		return nil
	}
	var batches [][]int64
	if err := json.Unmarshal(b, &batches); err == nil {
		*e = EmbeddingInput{Tokens: true}
		return nil
	}
	return errors.New("input must be a string, an array of strings or an array of tokens")
}

func (e EmbeddingInput) MarshalJSON() ([]byte, error) {
	if len(e.Texts) == 1 {
		return json.Marshal(e.Texts[0])
	}
	return json.Marshal(e.Texts)
}
