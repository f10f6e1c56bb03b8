package imgflip

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Template is one meme layout from the imgflip catalog.
type Template struct {
	ID       string
	Name     string
	URL      string
	Width    int
	Height   int
	BoxCount int
}

type rawTemplate struct {
	ID       *string `json:"id"`
	Name     *string `json:"name"`
	URL      *string `json:"url"`
	Width    *int    `json:"width"`
	Height   *int    `json:"height"`
	BoxCount *int    `json:"box_count"`
}

type rawTemplateList struct {
	Memes *[]rawTemplate `json:"memes"`
}

func (r rawTemplate) validate() (Template, error) {
	switch {
	case r.ID == nil:
		return Template{}, fmt.Errorf("missing id")
	case r.Name == nil:
		return Template{}, fmt.Errorf("template %s: missing name", *r.ID)
	case r.URL == nil:
		return Template{}, fmt.Errorf("template %s: missing url", *r.ID)
	case r.Width == nil || r.Height == nil:
		return Template{}, fmt.Errorf("template %s: missing dimensions", *r.ID)
	case r.BoxCount == nil:
		return Template{}, fmt.Errorf("template %s: missing box_count", *r.ID)
	case *r.BoxCount < 0:
		return Template{}, fmt.Errorf("template %s: negative box_count %d", *r.ID, *r.BoxCount)
	}
	return Template{
		ID:       *r.ID,
		Name:     *r.Name,
		URL:      *r.URL,
		Width:    *r.Width,
		Height:   *r.Height,
		BoxCount: *r.BoxCount,
	}, nil
}

// ListTemplates downloads the current template catalog. Every call is a
// fresh request; results are returned in catalog order.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/" + endpointGetMemes)
	c.observe(endpointGetMemes, resp, err, started)
	if err != nil {
		return nil, requestError(endpointGetMemes, err)
	}

	data, err := decodeEnvelope(endpointGetMemes, resp.StatusCode(), resp.Body())
	if err != nil {
		return nil, err
	}

	var list rawTemplateList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, schemaErrorf(endpointGetMemes, resp.StatusCode(), err, "malformed data object")
	}
	if list.Memes == nil {
		return nil, schemaErrorf(endpointGetMemes, resp.StatusCode(), nil, "missing data.memes")
	}

	templates := make([]Template, 0, len(*list.Memes))
	for i, raw := range *list.Memes {
		t, err := raw.validate()
		if err != nil {
			return nil, schemaErrorf(endpointGetMemes, resp.StatusCode(), err, "invalid template at index %d", i)
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// GetTemplateByID fetches the catalog and returns the template with the given
// id. ok is false when no such template exists; that is not an error.
func (c *Client) GetTemplateByID(ctx context.Context, id string) (Template, bool, error) {
	templates, err := c.ListTemplates(ctx)
	if err != nil {
		return Template{}, false, err
	}
	for _, t := range templates {
		if t.ID == id {
			return t, true, nil
		}
	}
	return Template{}, false, nil
}
