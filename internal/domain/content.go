package domain

import (
	"fmt"
	"slices"
)

// BlockContent is the variant-specific content of a block. It is sealed: only
// the content types in this package implement it.
type BlockContent interface {
	BlockType() BlockType
	Summary() string
	clone() BlockContent
}

type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

type HeadingContent struct {
	Text     string  `json:"text"`
	Level    int     `json:"level"`
	Align    Align   `json:"align"`
	Color    string  `json:"color"`
	FontSize float64 `json:"fontSize"`
}

func (HeadingContent) BlockType() BlockType  { return BlockTypeHeading }
func (c HeadingContent) Summary() string     { return truncate(c.Text) }
func (c HeadingContent) clone() BlockContent { return c }

type ParagraphContent struct {
	Text       string  `json:"text"`
	Align      Align   `json:"align"`
	Color      string  `json:"color"`
	FontSize   float64 `json:"fontSize"`
	LineHeight float64 `json:"lineHeight"`
}

func (ParagraphContent) BlockType() BlockType  { return BlockTypeParagraph }
func (c ParagraphContent) Summary() string     { return truncate(c.Text) }
func (c ParagraphContent) clone() BlockContent { return c }

type TextContent struct {
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize"`
	Color    string  `json:"color"`
	Bold     bool    `json:"bold"`
	Italic   bool    `json:"italic"`
}

func (TextContent) BlockType() BlockType  { return BlockTypeText }
func (c TextContent) Summary() string     { return truncate(c.Text) }
func (c TextContent) clone() BlockContent { return c }

type ImageContent struct {
	Src          string   `json:"src"`
	Alt          string   `json:"alt"`
	Width        float64  `json:"width"`
	Height       float64  `json:"height"`
	ObjectFit    string   `json:"objectFit"`
	BorderRadius float64  `json:"borderRadius"`
	Link         *LinkRef `json:"link"`
}

func (ImageContent) BlockType() BlockType { return BlockTypeImage }

func (c ImageContent) Summary() string {
	if c.Alt != "" {
		return truncate(c.Alt)
	}
	if c.Src != "" {
		return truncate(c.Src)
	}
	return "Image"
}

func (c ImageContent) clone() BlockContent {
	c.Link = c.Link.clone()
	return c
}

type VideoContent struct {
	URL      string  `json:"url"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Autoplay bool    `json:"autoplay"`
	Controls bool    `json:"controls"`
	Loop     bool    `json:"loop"`
}

func (VideoContent) BlockType() BlockType { return BlockTypeVideo }

func (c VideoContent) Summary() string {
	if c.URL == "" {
		return "Video"
	}
	return truncate(c.URL)
}

func (c VideoContent) clone() BlockContent { return c }

type IconContent struct {
	Name  string   `json:"name"`
	Size  float64  `json:"size"`
	Color string   `json:"color"`
	Link  *LinkRef `json:"link"`
}

func (IconContent) BlockType() BlockType { return BlockTypeIcon }
func (c IconContent) Summary() string    { return "Icon: " + c.Name }

func (c IconContent) clone() BlockContent {
	c.Link = c.Link.clone()
	return c
}

type ButtonVariant string

const (
	ButtonPrimary   ButtonVariant = "primary"
	ButtonSecondary ButtonVariant = "secondary"
	ButtonOutline   ButtonVariant = "outline"
	ButtonGhost     ButtonVariant = "ghost"
)

type ButtonContent struct {
	Label        string        `json:"label"`
	Link         LinkRef       `json:"link"`
	Variant      ButtonVariant `json:"variant"`
	Background   string        `json:"background"`
	TextColor    string        `json:"textColor"`
	BorderRadius float64       `json:"borderRadius"`
	NewTab       bool          `json:"newTab"`
}

func (ButtonContent) BlockType() BlockType  { return BlockTypeButton }
func (c ButtonContent) Summary() string     { return truncate(c.Label) }
func (c ButtonContent) clone() BlockContent { return c }

// SocialItem is one profile entry of a social block. URL is the profile
// address, not a LinkRef.
type SocialItem struct {
	Network string `json:"network"`
	URL     string `json:"url"`
}

type SocialContent struct {
	Items    []SocialItem `json:"items"`
	IconSize float64      `json:"iconSize"`
	Color    string       `json:"color"`
}

func (SocialContent) BlockType() BlockType { return BlockTypeSocial }

func (c SocialContent) Summary() string {
	return fmt.Sprintf("Social (%d)", len(c.Items))
}

func (c SocialContent) clone() BlockContent {
	c.Items = slices.Clone(c.Items)
	return c
}

type SpacerContent struct {
	Height float64 `json:"height"`
}

func (SpacerContent) BlockType() BlockType  { return BlockTypeSpacer }
func (c SpacerContent) Summary() string     { return fmt.Sprintf("Spacer %gpx", c.Height) }
func (c SpacerContent) clone() BlockContent { return c }

type DividerContent struct {
	Thickness    float64 `json:"thickness"`
	Color        string  `json:"color"`
	Style        string  `json:"style"`
	WidthPercent float64 `json:"widthPercent"`
}

func (DividerContent) BlockType() BlockType  { return BlockTypeDivider }
func (c DividerContent) Summary() string     { return "Divider" }
func (c DividerContent) clone() BlockContent { return c }

type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
	ShapeTriangle  ShapeKind = "triangle"
)

type ShapeContent struct {
	Shape       ShapeKind `json:"shape"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	Fill        string    `json:"fill"`
	Stroke      string    `json:"stroke"`
	StrokeWidth float64   `json:"strokeWidth"`
	Rotation    float64   `json:"rotation"`
	Opacity     float64   `json:"opacity"`
	Link        *LinkRef  `json:"link"`
}

func (ShapeContent) BlockType() BlockType { return BlockTypeShape }
func (c ShapeContent) Summary() string    { return "Shape: " + string(c.Shape) }

func (c ShapeContent) clone() BlockContent {
	c.Link = c.Link.clone()
	return c
}

type MapContent struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Zoom    int     `json:"zoom"`
	Height  float64 `json:"height"`
}

func (MapContent) BlockType() BlockType { return BlockTypeMap }

func (c MapContent) Summary() string {
	if c.Address == "" {
		return "Map"
	}
	return truncate(c.Address)
}

func (c MapContent) clone() BlockContent { return c }

// ContentLink returns the link carried by link-bearing content. ok is false
// for variants without a link field or when an optional link is unset.
func ContentLink(c BlockContent) (LinkRef, bool) {
	switch v := c.(type) {
	case ButtonContent:
		return v.Link, true
	case ImageContent:
		return v.Link.value()
	case IconContent:
		return v.Link.value()
	case ShapeContent:
		return v.Link.value()
	}
	return LinkRef{}, false
}

func truncate(s string) string {
	const limit = 40
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return s
}
