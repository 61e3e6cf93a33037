package models

import (
	"encoding/json"
	"strings"
)

// Notion property types the summariser reads or writes
const (
	PropertyTypeTitle    = "title"
	PropertyTypeRichText = "rich_text"
)

// RichTextContent is the writable part of a text run
type RichTextContent struct {
	Content string `json:"content"`
}

// RichText is a single styled text run as returned by the Notion API.
// PlainText is what the API returns on reads; Text is what it accepts on writes.
type RichText struct {
	Type      string           `json:"type,omitempty"`
	Text      *RichTextContent `json:"text,omitempty"`
	PlainText string           `json:"plain_text,omitempty"`
}

// NewTextRun builds a rich text run suitable for a property update
func NewTextRun(content string) RichText {
	return RichText{
		Type: "text",
		Text: &RichTextContent{Content: content},
	}
}

// PlainText concatenates the plain text of every run in order.
// Runs with empty plain text contribute nothing.
func PlainText(runs []RichText) string {
	var sb strings.Builder
	for _, run := range runs {
		if run.PlainText == "" {
			continue
		}
		sb.WriteString(run.PlainText)
	}
	return sb.String()
}

// Property is a page property value. Only title and rich_text are populated.
type Property struct {
	ID       string     `json:"id,omitempty"`
	Type     string     `json:"type,omitempty"`
	Title    []RichText `json:"title,omitempty"`
	RichText []RichText `json:"rich_text,omitempty"`
}

// Page is a Notion database row (a record)
type Page struct {
	Object     string              `json:"object,omitempty"`
	ID         string              `json:"id"`
	URL        string              `json:"url,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
}

// TitleText returns the flattened title property, or "" if the property is absent
func (p *Page) TitleText(name string) string {
	if p == nil || p.Properties == nil {
		return ""
	}
	prop, ok := p.Properties[name]
	if !ok {
		return ""
	}
	return PlainText(prop.Title)
}

// RichTextValue returns the flattened rich_text property, or "" if the property is absent
func (p *Page) RichTextValue(name string) string {
	if p == nil || p.Properties == nil {
		return ""
	}
	prop, ok := p.Properties[name]
	if !ok {
		return ""
	}
	return PlainText(prop.RichText)
}

// PageList is one page of database query results
type PageList struct {
	Object     string  `json:"object,omitempty"`
	Results    []*Page `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// Cursor returns the continuation token, or "" when there is none
func (l *PageList) Cursor() string {
	if l == nil || l.NextCursor == nil {
		return ""
	}
	return *l.NextCursor
}

// BlockContent is the type-specific payload of a block.
// Text-bearing block types (paragraph, heading_1, to_do, quote, ...) carry RichText.
type BlockContent struct {
	RichText []RichText `json:"rich_text,omitempty"`
}

// Block is a node of a page body.
// Content is keyed by block type; only the entry matching Type is meaningful.
type Block struct {
	Object      string
	ID          string
	Type        string
	HasChildren bool
	Content     map[string]*BlockContent
}

// TypeContent returns the sub-structure selected by the block type, if present
func (b *Block) TypeContent() (*BlockContent, bool) {
	if b == nil || b.Content == nil {
		return nil, false
	}
	content, ok := b.Content[b.Type]
	if !ok || content == nil {
		return nil, false
	}
	return content, true
}

type blockHeader struct {
	Object      string `json:"object"`
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
}

// UnmarshalJSON decodes the fixed block header plus the payload stored under the
// block's own type key. Payloads that are not JSON objects are ignored.
func (b *Block) UnmarshalJSON(data []byte) error {
	var header blockHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.Object = header.Object
	b.ID = header.ID
	b.Type = header.Type
	b.HasChildren = header.HasChildren
	b.Content = nil

	payload, ok := raw[header.Type]
	if !ok || header.Type == "" {
		return nil
	}

	var content BlockContent
	if err := json.Unmarshal(payload, &content); err != nil {
		return nil
	}
	b.Content = map[string]*BlockContent{header.Type: &content}
	return nil
}

// MarshalJSON writes the block in the API's flattened shape
func (b Block) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"object":       b.Object,
		"id":           b.ID,
		"type":         b.Type,
		"has_children": b.HasChildren,
	}
	for key, content := range b.Content {
		out[key] = content
	}
	return json.Marshal(out)
}

// BlockList is one page of block children
type BlockList struct {
	Object     string   `json:"object,omitempty"`
	Results    []*Block `json:"results"`
	HasMore    bool     `json:"has_more"`
	NextCursor *string  `json:"next_cursor"`
}

// Cursor returns the continuation token, or "" when there is none
func (l *BlockList) Cursor() string {
	if l == nil || l.NextCursor == nil {
		return ""
	}
	return *l.NextCursor
}
