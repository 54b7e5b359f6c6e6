package render

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/statichive/statichive-core/internal/core/domain"
)

// ImageURLMapper rewrites an image block's source URL for display.
// Returning the empty string keeps the raw stored source.
type ImageURLMapper func(source string, block *domain.Block) string

// Renderer walks a block tree and produces HTML. The zero value is
// usable; a custom image URL mapper is optional.
type Renderer struct {
	mapImageURL ImageURLMapper
}

// New creates a Renderer with an optional image URL mapper.
func New(mapper ImageURLMapper) *Renderer {
	return &Renderer{mapImageURL: mapper}
}

// Render renders the tree starting at its root block. A panic from a
// malformed tree is recovered and returned as an error so the caller
// can degrade instead of aborting the whole preparation.
func (r *Renderer) Render(tree *domain.BlockTree) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render panic: %v", rec)
		}
	}()

	root := tree.Root()
	if root == nil {
		return "", fmt.Errorf("block tree has no root")
	}
	return r.renderBlock(tree, root).HTML(), nil
}

// renderBlock dispatches on block type. The dispatch is total: every
// unrecognized type renders as an escaped structured dump, never
// silently dropped.
func (r *Renderer) renderBlock(tree *domain.BlockTree, block *domain.Block) *Node {
	switch block.Type {
	case domain.BlockTypePage:
		return Element("div", r.renderChildren(tree, block.Children)...)
	case domain.BlockTypeText:
		return Element("p", renderTitle(block.TitleRuns())...)
	case domain.BlockTypeHeader:
		return Element("h1", renderTitle(block.TitleRuns())...)
	case domain.BlockTypeSubHeader:
		return Element("h2", renderTitle(block.TitleRuns())...)
	case domain.BlockTypeSubSubHeader:
		return Element("h3", renderTitle(block.TitleRuns())...)
	case domain.BlockTypeBulletedList, domain.BlockTypeNumberedList:
		item := Element("li", renderTitle(block.TitleRuns())...)
		return item.Append(r.renderChildren(tree, block.Children)...)
	case domain.BlockTypeCode:
		return Element("pre", renderTitle(block.TitleRuns())...)
	case domain.BlockTypeImage:
		return r.renderImage(block)
	case domain.BlockTypeQuote:
		return Element("blockquote", renderTitle(block.TitleRuns())...)
	case domain.BlockTypeDivider:
		return &Node{Tag: "hr", Void: true}
	case domain.BlockTypeToggle:
		summary := Element("summary", renderTitle(block.TitleRuns())...)
		details := Element("details", summary)
		return details.Append(r.renderChildren(tree, block.Children)...)
	default:
		return renderUnknown(block)
	}
}

func (r *Renderer) renderImage(block *domain.Block) *Node {
	src := ""
	if block.Properties != nil {
		src = block.Properties.Source
	}
	if r.mapImageURL != nil {
		if mapped := r.mapImageURL(src, block); mapped != "" {
			src = mapped
		}
	}

	img := &Node{Tag: "img", Void: true}
	img.WithAttr("src", src)
	if alt := block.CaptionText(); alt != "" {
		img.WithAttr("alt", alt)
	}
	if f := block.Format; f != nil && f.BlockWidth > 0 && f.BlockAspectRatio > 0 {
		height := int(math.Floor(float64(f.BlockWidth) * f.BlockAspectRatio))
		img.WithAttr("width", strconv.Itoa(f.BlockWidth))
		img.WithAttr("height", strconv.Itoa(height))
	}
	return img
}

// renderUnknown is the debug fallback for types outside the closed set.
func renderUnknown(block *domain.Block) *Node {
	dump, err := json.Marshal(block)
	if err != nil {
		dump = []byte(fmt.Sprintf("unrenderable block %s", block.ID))
	}
	return Element("pre", Text(string(dump)))
}

// listEntry is either a raw child block ID or a synthetic list wrapper
// summarizing a contiguous run of same-type list items.
type listEntry struct {
	blockID    string
	wrapperTag string
	childIDs   []string
}

// renderChildren merges contiguous list-item runs and renders each
// resulting entry. The merge runs bulleted-then-numbered so that
// interleaved list types each form their own groups.
func (r *Renderer) renderChildren(tree *domain.BlockTree, childIDs []string) []*Node {
	entries := make([]listEntry, 0, len(childIDs))
	for _, id := range childIDs {
		entries = append(entries, listEntry{blockID: id})
	}
	entries = mergeListRuns(tree, entries, domain.BlockTypeBulletedList, "ul")
	entries = mergeListRuns(tree, entries, domain.BlockTypeNumberedList, "ol")

	nodes := make([]*Node, 0, len(entries))
	for _, entry := range entries {
		if entry.wrapperTag == "" {
			block := tree.Blocks[entry.blockID]
			if block == nil {
				continue
			}
			nodes = append(nodes, r.renderBlock(tree, block))
			continue
		}

		wrapper := Element(entry.wrapperTag)
		if entry.wrapperTag == "ol" {
			if start := listStartIndex(tree, entry.childIDs); start > 0 {
				wrapper.WithAttr("start", strconv.Itoa(start))
			}
		}
		for _, id := range entry.childIDs {
			block := tree.Blocks[id]
			if block == nil {
				continue
			}
			wrapper.Append(r.renderBlock(tree, block))
		}
		nodes = append(nodes, wrapper)
	}
	return nodes
}

// mergeListRuns collapses maximal contiguous runs of raw children of
// blockType into a single wrapper entry. Non-matching entries pass
// through unchanged and terminate the current run.
func mergeListRuns(tree *domain.BlockTree, entries []listEntry, blockType domain.BlockType, wrapperTag string) []listEntry {
	var run []string
	out := make([]listEntry, 0, len(entries))

	flush := func() {
		if len(run) > 0 {
			out = append(out, listEntry{wrapperTag: wrapperTag, childIDs: run})
			run = nil
		}
	}

	for _, entry := range entries {
		if entry.wrapperTag == "" {
			if block := tree.Blocks[entry.blockID]; block != nil && block.Type == blockType {
				run = append(run, entry.blockID)
				continue
			}
		}
		flush()
		out = append(out, entry)
	}
	flush()
	return out
}

// listStartIndex returns the start hint of the first block in a run.
func listStartIndex(tree *domain.BlockTree, childIDs []string) int {
	if len(childIDs) == 0 {
		return 0
	}
	block := tree.Blocks[childIDs[0]]
	if block == nil || block.Format == nil {
		return 0
	}
	return block.Format.ListStartIndex
}
