package memes

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/small-frappuccino/memebot/pkg/imgflip"
)

var testCatalog = []imgflip.Template{
	{ID: "181913649", Name: "Drake Hotline Bling", URL: "https://i.imgflip.com/30b1gx.jpg", Width: 1200, Height: 1200, BoxCount: 2},
	{ID: "8072285", Name: "Doge meme", URL: "https://i.imgflip.com/4t0m5.jpg", Width: 620, Height: 620, BoxCount: 5},
	{ID: "4087833", Name: "Waiting Skeleton", URL: "https://i.imgflip.com/2fm6x.jpg", Width: 298, Height: 403, BoxCount: 2},
	{ID: "0", Name: "Blank", URL: "https://i.imgflip.com/blank.jpg", Width: 100, Height: 100, BoxCount: 0},
}

type captionCall struct {
	templateID string
	captions   []string
}

type fakeAPI struct {
	mu         sync.Mutex
	templates  []imgflip.Template
	listErr    error
	captionErr error
	listCalls  int
	calls      []captionCall
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{templates: testCatalog}
}

func (f *fakeAPI) ListTemplates(context.Context) ([]imgflip.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]imgflip.Template(nil), f.templates...), nil
}

func (f *fakeAPI) CreateMeme(_ context.Context, templateID string, captions []string) (imgflip.MemeResult, error) {
	if len(captions) == 0 {
		return imgflip.MemeResult{}, imgflip.ErrNoCaptions
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captionErr != nil {
		return imgflip.MemeResult{}, f.captionErr
	}
	f.calls = append(f.calls, captionCall{templateID: templateID, captions: append([]string(nil), captions...)})
	n := len(f.calls)
	return imgflip.MemeResult{
		URL:     fmt.Sprintf("https://i.imgflip.com/meme%d.jpg", n),
		PageURL: fmt.Sprintf("https://imgflip.com/i/meme%d", n),
	}, nil
}

func (f *fakeAPI) captionCalls() []captionCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]captionCall(nil), f.calls...)
}

func (f *fakeAPI) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type fakeUsage struct {
	mu   sync.Mutex
	ids  []string
	fail bool
}

func (u *fakeUsage) RecordTemplateUsage(_ context.Context, templateID, _ string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail {
		return errors.New("database is locked")
	}
	u.ids = append(u.ids, templateID)
	return nil
}
