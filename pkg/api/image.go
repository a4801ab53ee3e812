package api

import "context"

// ImageClient binds the image service.
type ImageClient struct {
	c *Client
}

// ImageCapture is one image returned by the image service. Data holds the
// encoded image bytes as captured by the named source.
type ImageCapture struct {
	Source string `json:"source"`
	Format string `json:"format"` // "jpeg" or "raw"
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	Data   []byte `json:"data"`
}

type imageRequest struct {
	Sources []string `json:"sources"`
}

type imageResponse struct {
	Images []ImageCapture `json:"images"`
}

// GetImageFromSources captures one image per named source.
func (i *ImageClient) GetImageFromSources(ctx context.Context, sources []string) ([]ImageCapture, error) {
	var resp imageResponse
	if err := i.c.call(ctx, "image/get-image", imageRequest{Sources: sources}, &resp); err != nil {
		return nil, err
	}
	return resp.Images, nil
}
