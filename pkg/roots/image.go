package roots

import (
	"context"
	"strings"

	"github.com/haivivi/roots/pkg/encoding"
	"github.com/haivivi/roots/pkg/genx"
)

// Image is an encoded picture such as image/png or image/jpeg.
type Image struct {
	MIMEType string
	Data     []byte
}

// ImageFromDataURL parses "data:<mime>;base64,<payload>".
func ImageFromDataURL(s string) (*Image, error) {
	mt, data, err := encoding.ParseDataURL(s)
	if err != nil {
		return nil, err
	}
	return &Image{MIMEType: mt, Data: data}, nil
}

// ImageFromBase64 decodes a base64 payload. Malformed input fails with
// ErrEncoding.
func ImageFromBase64(mimeType, payload string) (*Image, error) {
	data, err := encoding.DecodeBase64(payload)
	if err != nil {
		return nil, err
	}
	return &Image{MIMEType: mimeType, Data: data}, nil
}

// DataURL formats the image as a data URL.
func (img *Image) DataURL() string {
	return encoding.FormatDataURL(img.MIMEType, img.Data)
}

func (img *Image) empty() bool {
	return img == nil || len(img.Data) == 0
}

func (img *Image) blob() genx.Part {
	return &genx.Blob{MIMEType: img.MIMEType, Data: img.Data}
}

// AudioClip is a recorded clip such as audio/webm or audio/wav.
type AudioClip struct {
	MIMEType string
	Data     []byte
}

// AudioClipFromBase64 decodes a base64 payload. Malformed input fails with
// ErrEncoding.
func AudioClipFromBase64(mimeType, payload string) (*AudioClip, error) {
	data, err := encoding.DecodeBase64(payload)
	if err != nil {
		return nil, err
	}
	return &AudioClip{MIMEType: mimeType, Data: data}, nil
}

func (a *AudioClip) empty() bool {
	return a == nil || len(a.Data) == 0
}

func (a *AudioClip) blob() genx.Part {
	return &genx.Blob{MIMEType: a.MIMEType, Data: a.Data}
}

// GenerateImage requests a square storybook illustration for prompt. The
// style suffix is appended to the prompt.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	uc := useCases[KindImage]
	mcb := &genx.ModelContextBuilder{Params: uc.params}
	mcb.UserText("", uc.prompt(prompt))

	resp, err := c.generator().Generate(ctx, c.Model(KindImage), mcb.Build())
	if err != nil {
		return nil, &NetworkError{Op: KindImage.String(), Err: err}
	}
	blob := resp.FirstBlob("image/")
	if blob == nil || len(blob.Data) == 0 {
		return nil, ErrNoImageData
	}
	mt := blob.MIMEType
	if strings.TrimSpace(mt) == "" {
		mt = "image/png"
	}
	return &Image{MIMEType: mt, Data: blob.Data}, nil
}

// GenerateStoryImage returns a data URL of an illustration for prompt, or
// PlaceholderImage when generation fails for any reason.
func (c *Client) GenerateStoryImage(ctx context.Context, prompt string) string {
	img, err := c.GenerateImage(ctx, prompt)
	if err != nil {
		c.logger().Warn("roots: image generation failed", "err", err)
		return PlaceholderImage
	}
	return img.DataURL()
}
