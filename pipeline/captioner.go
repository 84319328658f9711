package pipeline

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"strings"

	// Decoders for the image formats pages commonly serve.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"golang.org/x/sync/errgroup"

	"github.com/fwojciec/mira"
)

// CaptionPrompt is sent together with every image.
const CaptionPrompt = "Please provide a functional, objective description no longer than 100 words of the provided image so that someone who could not see it would be able to imagine it. Output necessary text and numbers if any. Output a general conclusion if the figure is a chart or a graph, pointing out the highest or lowest value of each category (read the column name or the row name) and the trend."

// CaptionLanguage is the language captions are requested in.
const CaptionLanguage = "en"

// CaptionSessionOptions returns the options every caption session is created with.
func CaptionSessionOptions() mira.SessionOptions {
	temperature, topK := float32(0), float32(1)
	return mira.SessionOptions{
		Sampling: mira.Sampling{
			Temperature: &temperature,
			TopK:        &topK,
		},
		ExpectedInputs: []string{mira.InputImage},
		OutputLanguage: CaptionLanguage,
	}
}

// Captioner describes images with a multimodal model, one fresh session
// per image. Captioning never fails a run: an image that cannot be
// captioned gets no description.
type Captioner struct {
	Sessions mira.CaptionSessionFactory
	Images   mira.ImageFetcher
	Logger   *slog.Logger
}

// Caption returns a description of the image at locator, or nil when the
// session, the download, decoding or the model call fails, when the
// reply is empty, or when ctx ends.
func (c *Captioner) Caption(ctx context.Context, locator string) *string {
	logger := loggerOrDiscard(c.Logger).With("image", locator)

	if ctx.Err() != nil {
		return nil
	}

	session, err := c.Sessions.CreateSession(ctx, CaptionSessionOptions())
	if err != nil {
		logger.Warn("caption session unavailable", "err", err)
		return nil
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Debug("caption session close failed", "err", err)
		}
	}()

	data, _, err := c.Images.FetchImage(ctx, locator)
	if err != nil {
		logger.Warn("image download failed", "err", err)
		return nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.Warn("image decode failed", "err", err)
		return nil
	}

	reply, err := session.Prompt(ctx, []mira.Message{{Text: CaptionPrompt, Image: img}})
	if ctx.Err() != nil {
		logger.Debug("caption aborted")
		return nil
	}
	if err != nil {
		logger.Warn("caption failed", "format", format, "err", err)
		return nil
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		logger.Debug("caption empty", "format", format)
		return nil
	}
	return &reply
}

// CaptionAll captions candidates concurrently. The result has one entry
// per candidate, in candidate order.
func (c *Captioner) CaptionAll(ctx context.Context, candidates []mira.ImageCandidate) []mira.CaptionedImage {
	results := make([]mira.CaptionedImage, len(candidates))

	var g errgroup.Group
	for i, cand := range candidates {
		results[i].Locator = cand.Locator
		g.Go(func() error {
			results[i].Description = c.Caption(ctx, cand.Locator)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
