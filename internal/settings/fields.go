package settings

import "pagebuilder/internal/domain"

type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextArea FieldKind = "textarea"
	FieldNumber   FieldKind = "number"
	FieldColor    FieldKind = "color"
	FieldSelect   FieldKind = "select"
	FieldToggle   FieldKind = "toggle"
	FieldLink     FieldKind = "link"
	FieldList     FieldKind = "list"
)

type fieldSpec struct {
	name    string
	label   string
	kind    FieldKind
	options []string
	min     *float64
	max     *float64
}

func num(v float64) *float64 { return &v }

func text(name, label string) fieldSpec  { return fieldSpec{name: name, label: label, kind: FieldText} }
func color(name, label string) fieldSpec { return fieldSpec{name: name, label: label, kind: FieldColor} }
func toggle(name, label string) fieldSpec {
	return fieldSpec{name: name, label: label, kind: FieldToggle}
}

func number(name, label string, lo, hi float64) fieldSpec {
	return fieldSpec{name: name, label: label, kind: FieldNumber, min: num(lo), max: num(hi)}
}

func choice(name, label string, options ...string) fieldSpec {
	return fieldSpec{name: name, label: label, kind: FieldSelect, options: options}
}

var (
	alignField = choice("align", "Alignment", "left", "center", "right")
	linkField  = fieldSpec{name: "link", label: "Link", kind: FieldLink}
)

// editorSpec is the settings form of one variant. The switch is exhaustive
// over the closed block type set; ok is false only for a tag outside it.
func editorSpec(t domain.BlockType) (title string, fields []fieldSpec, ok bool) {
	switch t {
	case domain.BlockTypeHeading:
		return "Heading", []fieldSpec{
			{name: "text", label: "Text", kind: FieldTextArea},
			number("level", "Level", 1, 6),
			alignField,
			color("color", "Color"),
			number("fontSize", "Font size", 8, 128),
		}, true
	case domain.BlockTypeParagraph:
		return "Paragraph", []fieldSpec{
			{name: "text", label: "Text", kind: FieldTextArea},
			alignField,
			color("color", "Color"),
			number("fontSize", "Font size", 8, 72),
			number("lineHeight", "Line height", 1, 3),
		}, true
	case domain.BlockTypeText:
		return "Text", []fieldSpec{
			text("text", "Text"),
			number("fontSize", "Font size", 8, 72),
			color("color", "Color"),
			toggle("bold", "Bold"),
			toggle("italic", "Italic"),
		}, true
	case domain.BlockTypeImage:
		return "Image", []fieldSpec{
			text("src", "Image URL"),
			text("alt", "Alt text"),
			number("width", "Width", 16, 1920),
			number("height", "Height", 16, 1920),
			choice("objectFit", "Fit", "cover", "contain", "fill", "none"),
			number("borderRadius", "Corner radius", 0, 200),
			linkField,
		}, true
	case domain.BlockTypeVideo:
		return "Video", []fieldSpec{
			text("url", "Video URL"),
			number("width", "Width", 120, 1920),
			number("height", "Height", 80, 1080),
			toggle("autoplay", "Autoplay"),
			toggle("controls", "Show controls"),
			toggle("loop", "Loop"),
		}, true
	case domain.BlockTypeIcon:
		return "Icon", []fieldSpec{
			text("name", "Icon"),
			number("size", "Size", 8, 256),
			color("color", "Color"),
			linkField,
		}, true
	case domain.BlockTypeButton:
		return "Button", []fieldSpec{
			text("label", "Label"),
			linkField,
			choice("variant", "Style",
				string(domain.ButtonPrimary), string(domain.ButtonSecondary),
				string(domain.ButtonOutline), string(domain.ButtonGhost)),
			color("background", "Background"),
			color("textColor", "Text color"),
			number("borderRadius", "Corner radius", 0, 48),
			toggle("newTab", "Open in new tab"),
		}, true
	case domain.BlockTypeSocial:
		return "Social links", []fieldSpec{
			{name: "items", label: "Profiles", kind: FieldList},
			number("iconSize", "Icon size", 12, 96),
			color("color", "Color"),
		}, true
	case domain.BlockTypeSpacer:
		return "Spacer", []fieldSpec{
			number("height", "Height", 0, 400),
		}, true
	case domain.BlockTypeDivider:
		return "Divider", []fieldSpec{
			number("thickness", "Thickness", 1, 20),
			color("color", "Color"),
			choice("style", "Style", "solid", "dashed", "dotted"),
			number("widthPercent", "Width (%)", 0, 100),
		}, true
	case domain.BlockTypeShape:
		return "Shape", []fieldSpec{
			choice("shape", "Shape",
				string(domain.ShapeRectangle), string(domain.ShapeCircle), string(domain.ShapeTriangle)),
			number("width", "Width", 8, 1920),
			number("height", "Height", 8, 1920),
			color("fill", "Fill"),
			color("stroke", "Stroke"),
			number("strokeWidth", "Stroke width", 0, 50),
			number("rotation", "Rotation", 0, 360),
			number("opacity", "Opacity", 0, 1),
			linkField,
		}, true
	case domain.BlockTypeMap:
		return "Map", []fieldSpec{
			text("address", "Address"),
			number("lat", "Latitude", -90, 90),
			number("lng", "Longitude", -180, 180),
			number("zoom", "Zoom", 0, 22),
			number("height", "Height", 100, 1080),
		}, true
	}
	return "", nil, false
}
