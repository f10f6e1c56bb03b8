package imgflip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// MemeResult is the rendered meme returned by caption_image.
type MemeResult struct {
	URL     string
	PageURL string
}

type rawMemeResult struct {
	URL     *string `json:"url"`
	PageURL string  `json:"page_url"`
}

// CreateMeme renders captions onto the template identified by templateID.
// captions must be non-empty; each entry becomes one text box in order.
func (c *Client) CreateMeme(ctx context.Context, templateID string, captions []string) (MemeResult, error) {
	if len(captions) == 0 {
		return MemeResult{}, ErrNoCaptions
	}

	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(captionForm(templateID, c.username, c.password, captions)).
		Post("/" + endpointCaptionImage)
	c.observe(endpointCaptionImage, resp, err, started)
	if err != nil {
		return MemeResult{}, requestError(endpointCaptionImage, err)
	}

	data, err := decodeEnvelope(endpointCaptionImage, resp.StatusCode(), resp.Body())
	if err != nil {
		return MemeResult{}, err
	}

	var raw rawMemeResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return MemeResult{}, schemaErrorf(endpointCaptionImage, resp.StatusCode(), err, "malformed data object")
	}
	if raw.URL == nil {
		return MemeResult{}, schemaErrorf(endpointCaptionImage, resp.StatusCode(), nil, "missing data.url")
	}
	if err := validateImageURL(*raw.URL); err != nil {
		return MemeResult{}, schemaErrorf(endpointCaptionImage, resp.StatusCode(), err, "invalid data.url")
	}
	return MemeResult{URL: *raw.URL, PageURL: raw.PageURL}, nil
}

// captionForm builds the form body. Boxes are sent as boxes[i][text], which
// imgflip uses instead of text0/text1 when more than two boxes are needed.
func captionForm(templateID, username, password string, captions []string) url.Values {
	form := url.Values{}
	form.Set("template_id", templateID)
	form.Set("username", username)
	form.Set("password", password)
	for i, text := range captions {
		form.Set(fmt.Sprintf("boxes[%d][text]", i), text)
	}
	return form
}

func validateImageURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("not an absolute http(s) url: %q", raw)
	}
	return nil
}
