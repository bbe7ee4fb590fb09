package domain

import "fmt"

// DefaultContent returns the content a freshly created block of type t starts
// with. Adding a variant means adding a case here; an unknown tag is a
// registry bug and surfaces as ErrUnknownBlockType.
func DefaultContent(t BlockType) (BlockContent, error) {
	switch t {
	case BlockTypeHeading:
		return HeadingContent{Text: "Heading", Level: 2, Align: AlignLeft, Color: "#111827", FontSize: 32}, nil
	case BlockTypeParagraph:
		return ParagraphContent{Text: "Start writing...", Align: AlignLeft, Color: "#374151", FontSize: 16, LineHeight: 1.5}, nil
	case BlockTypeText:
		return TextContent{Text: "Text", FontSize: 14, Color: "#111827"}, nil
	case BlockTypeImage:
		return ImageContent{Width: 320, Height: 200, ObjectFit: "cover"}, nil
	case BlockTypeVideo:
		return VideoContent{Width: 480, Height: 270, Controls: true}, nil
	case BlockTypeIcon:
		return IconContent{Name: "star", Size: 32, Color: "#111827"}, nil
	case BlockTypeButton:
		return ButtonContent{
			Label:        "Click me",
			Link:         URLLink(""),
			Variant:      ButtonPrimary,
			Background:   "#2563eb",
			TextColor:    "#ffffff",
			BorderRadius: 6,
		}, nil
	case BlockTypeSocial:
		return SocialContent{
			Items: []SocialItem{
				{Network: "facebook", URL: "#"},
				{Network: "twitter", URL: "#"},
				{Network: "instagram", URL: "#"},
			},
			IconSize: 24,
			Color:    "#111827",
		}, nil
	case BlockTypeSpacer:
		return SpacerContent{Height: 32}, nil
	case BlockTypeDivider:
		return DividerContent{Thickness: 1, Color: "#e5e7eb", Style: "solid", WidthPercent: 100}, nil
	case BlockTypeShape:
		return ShapeContent{Shape: ShapeRectangle, Width: 120, Height: 120, Fill: "#93c5fd", Opacity: 1}, nil
	case BlockTypeMap:
		return MapContent{Zoom: 12, Height: 300}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
}
