package formats

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/scene"
)

// ImageLoader decodes PNG and JPEG headers into texture handles.
type ImageLoader struct {
	source Source
}

func NewImageLoader(source Source) *ImageLoader {
	return &ImageLoader{source: source}
}

func (l *ImageLoader) LoadTexture(ctx context.Context, locator string) (*scene.Texture, error) {
	data, err := l.source.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", locator, err)
	}
	log.Debug(log.CatFormats, "Decoded image", "locator", locator, "format", format,
		"width", cfg.Width, "height", cfg.Height)
	return &scene.Texture{
		Locator: locator,
		Format:  format,
		Width:   cfg.Width,
		Height:  cfg.Height,
	}, nil
}
