// Package templater renders prompts and transcription prefixes from
// text/template files found under a template directory:
//
//	<dir>/chat/<name>.tmpl
//	<dir>/completions/<name>.tmpl
//	<dir>/transcription/<name>.tmpl
//
// Completion templates see the input as .messages; transcription templates
// see .language.
package templater

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/rs/zerolog/log"

	"airouter/internal/apierr"
)

// Kind selects the template subdirectory.
type Kind int

const (
	Chat Kind = iota
	Completions
	Transcription
)

func (k Kind) dir() string {
	switch k {
	case Chat:
		return "chat"
	case Completions:
		return "completions"
	default:
		return "transcription"
	}
}

// AssistantMarker ends every rendered completion prompt.
const AssistantMarker = "\nASSISTANT:"

// DefaultLanguage is used for transcription prefixes when none is given.
const DefaultLanguage = "en"

const defaultCompletions = `{{- range .messages}}{{content .}}{{end -}}`

// Texter is implemented by message types that carry text content.
type Texter interface {
	Text() string
}

var funcs = template.FuncMap{
	"content":         content,
	"raise_exception": raiseException,
	"lower":           strings.ToLower,
	"upper":           strings.ToUpper,
	"trim":            strings.TrimSpace,
}

func content(v any) string {
	switch m := v.(type) {
	case string:
		return m
	case Texter:
		return m.Text()
	case fmt.Stringer:
		return m.String()
	default:
		return ""
	}
}

func raiseException(msg string) (string, error) { return "", errors.New(msg) }

// Templater loads templates lazily and caches them. Safe for concurrent use.
type Templater struct {
	dir  string
	def  *template.Template
	mu   sync.RWMutex
	tmpl map[string]*template.Template
}

// New returns a Templater reading from dir. An empty dir only has the default template.
func New(dir string) (*Templater, error) {
	def, err := template.New("default_completions").Funcs(funcs).Parse(defaultCompletions)
	if err != nil {
		return nil, fmt.Errorf("parse default completions template: %w", err)
	}
	return &Templater{dir: dir, def: def, tmpl: map[string]*template.Template{}}, nil
}

func (t *Templater) lookup(kind Kind, name string) (*template.Template, error) {
	key := kind.dir() + "/" + name + ".tmpl"
	t.mu.RLock()
	tpl, ok := t.tmpl[key]
	t.mu.RUnlock()
	if ok {
		return tpl, nil
	}
	if t.dir == "" {
		return nil, fmt.Errorf("template %s: no template_dir configured", key)
	}
	b, err := os.ReadFile(filepath.Join(t.dir, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", key, err)
	}
	tpl, err = template.New(key).Funcs(funcs).Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", key, err)
	}
	t.mu.Lock()
	t.tmpl[key] = tpl
	t.mu.Unlock()
	return tpl, nil
}

// Render applies the named completion template, or the default one when name
// is empty, to messages and appends AssistantMarker.
func (t *Templater) Render(messages any, name string, kind Kind) (string, error) {
	tpl := t.def
	if name != "" {
		var err error
		if tpl, err = t.lookup(kind, name); err != nil {
			return "", apierr.Configuration("%v", err)
		}
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]any{"messages": messages}); err != nil {
		return "", apierr.Configuration("failed to render completions template: %v", err)
	}
	buf.WriteString(AssistantMarker)
	log.Debug().Str("template", tpl.Name()).Str("prompt", buf.String()).Msg("rendered completions template")
	return buf.String(), nil
}

// RenderTranscription renders the transcription prefix. Without a template
// name the prefix is empty.
func (t *Templater) RenderTranscription(language, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	tpl, err := t.lookup(Transcription, name)
	if err != nil {
		return "", apierr.Configuration("%v", err)
	}
	if language == "" {
		language = DefaultLanguage
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]any{"language": language}); err != nil {
		return "", apierr.Configuration("failed to render transcription template: %v", err)
	}
	return buf.String(), nil
}
