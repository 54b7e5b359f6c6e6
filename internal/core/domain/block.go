package domain

// BlockType identifies the kind of a block in a source document tree.
// The set is closed; anything the source produces outside it renders
// through the debug fallback rather than being dropped.
type BlockType string

const (
	BlockTypePage         BlockType = "page"
	BlockTypeText         BlockType = "text"
	BlockTypeHeader       BlockType = "header"
	BlockTypeSubHeader    BlockType = "sub_header"
	BlockTypeSubSubHeader BlockType = "sub_sub_header"
	BlockTypeBulletedList BlockType = "bulleted_list"
	BlockTypeNumberedList BlockType = "numbered_list"
	BlockTypeCode         BlockType = "code"
	BlockTypeImage        BlockType = "image"
	BlockTypeQuote        BlockType = "quote"
	BlockTypeDivider      BlockType = "divider"
	BlockTypeToggle       BlockType = "toggle"
)

// Marker is a single inline style instruction: a tag plus optional
// arguments (link target, highlight colour). Markers apply innermost
// first — the first marker in a run's stack becomes the innermost
// wrapping element.
type Marker struct {
	Tag  string   `json:"tag"`
	Args []string `json:"args,omitempty"`
}

// DecoratedText is one run of text with its style marker stack.
// A nil Markers slice means plain text.
type DecoratedText struct {
	Text    string   `json:"text"`
	Markers []Marker `json:"markers,omitempty"`
}

// BlockProperties holds the type-dependent rich content of a block.
type BlockProperties struct {
	// Title is the primary decorated-text content for most block types.
	Title []DecoratedText `json:"title,omitempty"`

	// Source is the external URL for image blocks.
	Source string `json:"source,omitempty"`

	// Caption is the caption text for image blocks, used as alt text.
	Caption []DecoratedText `json:"caption,omitempty"`

	// Language is the code block language hint. Carried through the
	// data model but not used for highlighting.
	Language string `json:"language,omitempty"`
}

// BlockFormat holds type-dependent layout hints.
type BlockFormat struct {
	// BlockWidth is the display width in pixels for image blocks.
	BlockWidth int `json:"block_width,omitempty"`

	// BlockAspectRatio is height/width for image blocks. Height is
	// derived only when both width and ratio are present.
	BlockAspectRatio float64 `json:"block_aspect_ratio,omitempty"`

	// ListStartIndex is the starting number for a numbered list run.
	ListStartIndex int `json:"list_start_index,omitempty"`
}

// Block is a node in a source document tree. Blocks are immutable once
// fetched; the tree is rebuilt from the source on every preparation.
type Block struct {
	ID         string           `json:"id"`
	Type       BlockType        `json:"type"`
	Properties *BlockProperties `json:"properties,omitempty"`
	Format     *BlockFormat     `json:"format,omitempty"`
	Children   []string         `json:"children,omitempty"`
}

// TitleRuns returns the block's decorated title runs, tolerating
// absent properties.
func (b *Block) TitleRuns() []DecoratedText {
	if b.Properties == nil {
		return nil
	}
	return b.Properties.Title
}

// TitleText returns the concatenated plain text of the block's title runs.
func (b *Block) TitleText() string {
	if b.Properties == nil {
		return ""
	}
	var out string
	for _, run := range b.Properties.Title {
		out += run.Text
	}
	return out
}

// CaptionText returns the concatenated plain text of the block's caption runs.
func (b *Block) CaptionText() string {
	if b.Properties == nil {
		return ""
	}
	var out string
	for _, run := range b.Properties.Caption {
		out += run.Text
	}
	return out
}

// BlockTree is the in-memory document tree built for one preparation pass.
type BlockTree struct {
	RootID string            `json:"root_id"`
	Blocks map[string]*Block `json:"blocks"`
}

// Root returns the root block, or nil when the tree is malformed.
func (t *BlockTree) Root() *Block {
	if t == nil {
		return nil
	}
	return t.Blocks[t.RootID]
}
