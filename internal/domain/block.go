package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

type BlockType string

const (
	BlockTypeHeading   BlockType = "heading"
	BlockTypeParagraph BlockType = "paragraph"
	BlockTypeText      BlockType = "text"
	BlockTypeImage     BlockType = "image"
	BlockTypeVideo     BlockType = "video"
	BlockTypeIcon      BlockType = "icon"
	BlockTypeButton    BlockType = "button"
	BlockTypeSocial    BlockType = "social"
	BlockTypeSpacer    BlockType = "spacer"
	BlockTypeDivider   BlockType = "divider"
	BlockTypeShape     BlockType = "shape"
	BlockTypeMap       BlockType = "map"
)

// blockTypes is the closed variant set in toolbox order.
var blockTypes = []BlockType{
	BlockTypeHeading,
	BlockTypeParagraph,
	BlockTypeText,
	BlockTypeImage,
	BlockTypeVideo,
	BlockTypeIcon,
	BlockTypeButton,
	BlockTypeSocial,
	BlockTypeSpacer,
	BlockTypeDivider,
	BlockTypeShape,
	BlockTypeMap,
}

// AllBlockTypes returns every block type in toolbox order.
func AllBlockTypes() []BlockType {
	return slices.Clone(blockTypes)
}

// Valid reports whether t belongs to the closed variant set.
func (t BlockType) Valid() bool {
	return slices.Contains(blockTypes, t)
}

// HasLink reports whether content of this type carries a LinkRef.
func (t BlockType) HasLink() bool {
	switch t {
	case BlockTypeButton, BlockTypeImage, BlockTypeIcon, BlockTypeShape:
		return true
	}
	return false
}

// ParseBlockType validates a tag arriving from a drop event, a toolbox click,
// an agent call or storage.
func ParseBlockType(s string) (BlockType, error) {
	t := BlockType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownBlockType, s)
	}
	return t, nil
}

// Block is a typed content block placed on a page. Its position in the page's
// block sequence is its depth order.
type Block struct {
	ID      string
	PageID  string
	Type    BlockType
	Content BlockContent
}

// NewBlock builds a block whose type is taken from its content, so a block can
// never hold another variant's content.
func NewBlock(id, pageID string, content BlockContent) Block {
	return Block{ID: id, PageID: pageID, Type: content.BlockType(), Content: content}
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	if b.Content != nil {
		b.Content = b.Content.clone()
	}
	return b
}

// Summary is the short label shown in layer lists.
func (b Block) Summary() string {
	if b.Content == nil {
		return string(b.Type)
	}
	return b.Content.Summary()
}

type blockWire struct {
	ID      string          `json:"id"`
	PageID  string          `json:"pageId"`
	Type    BlockType       `json:"type"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON writes content as null while it is still pending decoding.
func (b Block) MarshalJSON() ([]byte, error) {
	raw := json.RawMessage("null")
	if b.Content != nil {
		var err error
		if raw, err = EncodeContent(b.Content); err != nil {
			return nil, err
		}
	}
	return json.Marshal(blockWire{ID: b.ID, PageID: b.PageID, Type: b.Type, Content: raw})
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	content, err := DecodeContent(w.Type, w.Content)
	if err != nil {
		return err
	}
	*b = Block{ID: w.ID, PageID: w.PageID, Type: w.Type, Content: content}
	return nil
}

// StoredBlock is the persisted form of a block. Content is kept raw because
// rows written by older versions may still carry a legacy shape.
type StoredBlock struct {
	ID        string          `json:"id"`
	PageID    string          `json:"pageId"`
	Type      BlockType       `json:"type"`
	Content   json.RawMessage `json:"content"`
	SortOrder int             `json:"sortOrder"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// BlockRepository persists the ordered block sequence of a page verbatim.
type BlockRepository interface {
	ListPageBlocks(ctx context.Context, pageID string) ([]StoredBlock, error)
	ReplacePageBlocks(ctx context.Context, pageID string, blocks []StoredBlock) error
	DeletePageBlocks(ctx context.Context, pageID string) error
	// PageFingerprint changes whenever the stored sequence of pageID changes.
	PageFingerprint(ctx context.Context, pageID string) (string, error)
}
