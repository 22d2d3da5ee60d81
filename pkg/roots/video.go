package roots

import (
	"context"

	"github.com/haivivi/roots/pkg/genx"
)

// GenerateVideoPlan writes a multi-scene production plan about topic. When
// ref is given, the image is sent ahead of the prompt text.
func (c *Client) GenerateVideoPlan(ctx context.Context, topic string, ref *Image) (*VideoPlanResult, error) {
	var attachments []genx.Part
	if !ref.empty() {
		attachments = append(attachments, ref.blob())
	}
	return generate[VideoPlanResult](ctx, c, KindVideo, topic, attachments...)
}
