// Package opml imports and exports channel subscriptions as OPML.
package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/robertmeta/vidcat/model"
)

// OPML represents the root OPML structure.
type OPML struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    Head     `xml:"head"`
	Body    Body     `xml:"body"`
}

// Head contains metadata about the OPML document.
type Head struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

// Body contains the outline elements.
type Body struct {
	Outlines []Outline `xml:"outline"`
}

// Outline represents a channel feed or a category in OPML.
type Outline struct {
	Text     string    `xml:"text,attr,omitempty"`
	Title    string    `xml:"title,attr,omitempty"`
	Type     string    `xml:"type,attr,omitempty"`
	XMLUrl   string    `xml:"xmlUrl,attr,omitempty"`
	HTMLUrl  string    `xml:"htmlUrl,attr,omitempty"`
	Category string    `xml:"category,attr,omitempty"`
	Outlines []Outline `xml:"outline,omitempty"`
}

// Parse reads an OPML document and extracts channel subscriptions.
func Parse(r io.Reader) ([]*model.Channel, error) {
	var doc OPML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse OPML: %w", err)
	}

	return extractChannels(doc.Body.Outlines, ""), nil
}

// extractChannels walks outlines depth-first. Outlines without their own
// category take the text of the enclosing outline.
func extractChannels(outlines []Outline, parentCategory string) []*model.Channel {
	channels := []*model.Channel{}

	for _, outline := range outlines {
		if outline.XMLUrl != "" {
			channel := &model.Channel{
				FeedURL:   outline.XMLUrl,
				ChannelID: model.ChannelIDFromFeedURL(outline.XMLUrl),
				Title:     outline.Title,
				Category:  outline.Category,
			}
			if channel.Category == "" {
				channel.Category = parentCategory
			}
			if channel.Title == "" {
				channel.Title = outline.Text
			}
			channels = append(channels, channel)
		}

		if len(outline.Outlines) > 0 {
			category := outline.Text
			if category == "" {
				category = parentCategory
			}
			channels = append(channels, extractChannels(outline.Outlines, category)...)
		}
	}

	return channels
}

// Generate writes channels as an OPML document. Channels are grouped by
// category in order of first appearance; uncategorized channels follow.
func Generate(w io.Writer, channels []*model.Channel) error {
	var (
		order         []string
		categories    = make(map[string][]*model.Channel)
		uncategorized []*model.Channel
	)

	for _, c := range channels {
		if c.Category == "" {
			uncategorized = append(uncategorized, c)
			continue
		}
		if _, ok := categories[c.Category]; !ok {
			order = append(order, c.Category)
		}
		categories[c.Category] = append(categories[c.Category], c)
	}

	doc := OPML{
		Version: "2.0",
		Head: Head{
			Title:       "vidcat Subscriptions",
			DateCreated: time.Now().Format(time.RFC1123),
		},
		Body: Body{
			Outlines: []Outline{},
		},
	}

	for _, category := range order {
		group := Outline{
			Text:     category,
			Title:    category,
			Outlines: []Outline{},
		}
		for _, c := range categories[category] {
			group.Outlines = append(group.Outlines, channelOutline(c))
		}
		doc.Body.Outlines = append(doc.Body.Outlines, group)
	}

	for _, c := range uncategorized {
		doc.Body.Outlines = append(doc.Body.Outlines, channelOutline(c))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode OPML: %w", err)
	}

	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("failed to write final newline: %w", err)
	}

	return nil
}

func channelOutline(c *model.Channel) Outline {
	outline := Outline{
		Type:     "rss",
		Text:     c.Title,
		Title:    c.Title,
		XMLUrl:   c.FeedURL,
		Category: c.Category,
	}
	if c.ChannelID != "" {
		outline.HTMLUrl = "https://www.youtube.com/channel/" + c.ChannelID
	}
	return outline
}
