package memes

import (
	"strconv"
	"strings"
)

// BlankCaption replaces empty submissions; imgflip rejects empty box text.
const BlankCaption = " "

// FieldKey returns the modal input custom ID for caption slot i.
func FieldKey(i int) string {
	return strconv.Itoa(i)
}

// DefaultCaptions returns the placeholder captions used for a sample meme.
func DefaultCaptions(boxCount int) []string {
	captions := make([]string, boxCount)
	for i := range captions {
		captions[i] = "Text box " + strconv.Itoa(i+1)
	}
	return captions
}

// CollectCaptions reads one value per slot through field. Blank values
// become BlankCaption so the result never holds an empty string.
func CollectCaptions(boxCount int, field func(key string) string) []string {
	captions := make([]string, boxCount)
	for i := range captions {
		text := ""
		if field != nil {
			text = strings.TrimSpace(field(FieldKey(i)))
		}
		if text == "" {
			text = BlankCaption
		}
		captions[i] = text
	}
	return captions
}
