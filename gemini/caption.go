package gemini

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/fwojciec/mira"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"google.golang.org/genai"
)

var (
	_ mira.CaptionSessionFactory = (*CaptionSessionFactory)(nil)
	_ mira.ImageCaptionSession   = (*CaptionSession)(nil)
)

// CaptionSessionFactory creates multimodal Gemini conversations.
type CaptionSessionFactory struct {
	client *genai.Client
	model  string
}

// NewCaptionSessionFactory creates a new CaptionSessionFactory.
func NewCaptionSessionFactory(client *genai.Client, model string) *CaptionSessionFactory {
	return &CaptionSessionFactory{client: client, model: model}
}

// CreateSession starts an empty conversation configured by opts.
// Returns EINVALID for input kinds or languages Gemini sessions cannot honor.
func (f *CaptionSessionFactory) CreateSession(ctx context.Context, opts mira.SessionOptions) (mira.ImageCaptionSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	config, err := BuildSessionConfig(opts)
	if err != nil {
		return nil, err
	}
	return &CaptionSession{
		client: f.client,
		model:  f.model,
		config: config,
		images: acceptsImages(opts.ExpectedInputs),
	}, nil
}

// BuildSessionConfig maps session options onto a GenerateContentConfig.
// The output language becomes a system instruction.
func BuildSessionConfig(opts mira.SessionOptions) (*genai.GenerateContentConfig, error) {
	for _, input := range opts.ExpectedInputs {
		if input != mira.InputText && input != mira.InputImage {
			return nil, mira.Errorf(mira.EINVALID, "unsupported session input %q", input)
		}
	}

	config := BuildConfig(opts.Sampling)
	if opts.OutputLanguage == "" {
		return config, nil
	}

	tag, err := language.Parse(opts.OutputLanguage)
	if err != nil {
		return nil, mira.Errorf(mira.EINVALID, "invalid output language %q", opts.OutputLanguage)
	}
	config.SystemInstruction = &genai.Content{
		Parts: []*genai.Part{{
			Text: fmt.Sprintf("Always respond in %s.", display.English.Languages().Name(tag)),
		}},
	}
	return config, nil
}

func acceptsImages(inputs []string) bool {
	for _, input := range inputs {
		if input == mira.InputImage {
			return true
		}
	}
	return false
}

// CaptionSession is a multimodal conversation. Every Prompt call sends
// the whole history, so the model sees earlier turns.
type CaptionSession struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	images bool

	mu      sync.Mutex
	history []*genai.Content
	closed  bool
}

// Prompt sends messages as one user turn and returns the reply text.
func (s *CaptionSession) Prompt(ctx context.Context, messages []mira.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", mira.Errorf(mira.EINVALID, "session closed")
	}

	turn, err := s.userTurn(messages)
	if err != nil {
		return "", err
	}

	contents := append(append([]*genai.Content{}, s.history...), turn)
	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, s.config)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", mira.Errorf(mira.EINTERNAL, "gemini returned nil result")
	}

	reply := result.Text()
	s.history = append(contents, genai.NewContentFromText(reply, "model"))
	return reply, nil
}

func (s *CaptionSession) userTurn(messages []mira.Message) (*genai.Content, error) {
	if len(messages) == 0 {
		return nil, mira.Errorf(mira.EINVALID, "message required")
	}
	var parts []*genai.Part
	for _, m := range messages {
		if m.Text != "" {
			parts = append(parts, genai.NewPartFromText(m.Text))
		}
		if m.Image == nil {
			continue
		}
		if !s.images {
			return nil, mira.Errorf(mira.EINVALID, "session does not accept images")
		}
		data, err := EncodeImage(m.Image)
		if err != nil {
			return nil, err
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: "image/png", Data: data},
		})
	}
	return &genai.Content{Role: "user", Parts: parts}, nil
}

// Close releases the conversation history.
func (s *CaptionSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.history = nil
	return nil
}

// EncodeImage serializes img as PNG, the inline format sent to Gemini.
func EncodeImage(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, mira.Errorf(mira.EINTERNAL, "encode image: %v", err)
	}
	return buf.Bytes(), nil
}
