package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// EncodeContent serializes content to its JSON object form.
func EncodeContent(c BlockContent) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil content", ErrInvalidContent)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s content: %w", c.BlockType(), err)
	}
	return data, nil
}

// DecodeContent decodes raw into the variant for t. Missing fields keep their
// registry defaults; fields the variant does not have are rejected, which is
// how a block is kept from holding another variant's content.
func DecodeContent(t BlockType, raw json.RawMessage) (BlockContent, error) {
	def, err := DefaultContent(t)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return def, nil
	}
	switch d := def.(type) {
	case HeadingContent:
		return decodeOver(d, raw)
	case ParagraphContent:
		return decodeOver(d, raw)
	case TextContent:
		return decodeOver(d, raw)
	case ImageContent:
		return decodeOver(d, raw)
	case VideoContent:
		return decodeOver(d, raw)
	case IconContent:
		return decodeOver(d, raw)
	case ButtonContent:
		return decodeOver(d, raw)
	case SocialContent:
		// decoding into the default slice would keep default item fields
		if hasKey(raw, "items") {
			d.Items = nil
		}
		return decodeOver(d, raw)
	case SpacerContent:
		return decodeOver(d, raw)
	case DividerContent:
		return decodeOver(d, raw)
	case ShapeContent:
		return decodeOver(d, raw)
	case MapContent:
		return decodeOver(d, raw)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBlockType, t)
}

func decodeOver[C BlockContent](base C, raw json.RawMessage) (BlockContent, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&base); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidContent, base.BlockType(), err)
	}
	return base, nil
}

func hasKey(raw json.RawMessage, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	_, ok := fields[key]
	return ok
}

// ContentFields lists the JSON keys of a variant's content in declaration order.
func ContentFields(t BlockType) ([]string, error) {
	def, err := DefaultContent(t)
	if err != nil {
		return nil, err
	}
	raw, err := EncodeContent(def)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Patch is a partial content update: field name to new value.
type Patch map[string]any

// ApplyPatch merges p into c by shallow key replacement and decodes the result
// back into the same variant. c is never modified; on error it stays valid.
func ApplyPatch(c BlockContent, p Patch) (BlockContent, error) {
	raw, err := EncodeContent(c)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("patch %s: %w", c.BlockType(), err)
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, c.BlockType(), k)
		}
		v, err := json.Marshal(p[k])
		if err != nil {
			return nil, fmt.Errorf("patch %s.%s: %w", c.BlockType(), k, err)
		}
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", c.BlockType(), err)
	}
	out, err := DecodeContent(c.BlockType(), merged)
	if err != nil {
		return nil, err
	}
	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks the value constraints the JSON types cannot express.
func Validate(c BlockContent) error {
	switch v := c.(type) {
	case HeadingContent:
		if v.Level < 1 || v.Level > 6 {
			return fmt.Errorf("%w: heading level %d", ErrInvalidContent, v.Level)
		}
		return validateAlign(v.Align)
	case ParagraphContent:
		return validateAlign(v.Align)
	case ButtonContent:
		return v.Link.Validate()
	case ImageContent:
		return validateOptionalLink(v.Link)
	case IconContent:
		return validateOptionalLink(v.Link)
	case ShapeContent:
		switch v.Shape {
		case ShapeRectangle, ShapeCircle, ShapeTriangle:
		default:
			return fmt.Errorf("%w: shape %q", ErrInvalidContent, v.Shape)
		}
		if v.Opacity < 0 || v.Opacity > 1 {
			return fmt.Errorf("%w: opacity %g", ErrInvalidContent, v.Opacity)
		}
		return validateOptionalLink(v.Link)
	case DividerContent:
		switch v.Style {
		case "solid", "dashed", "dotted":
			return nil
		}
		return fmt.Errorf("%w: divider style %q", ErrInvalidContent, v.Style)
	case MapContent:
		if v.Zoom < 0 || v.Zoom > 22 {
			return fmt.Errorf("%w: map zoom %d", ErrInvalidContent, v.Zoom)
		}
	}
	return nil
}

func validateAlign(a Align) error {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return nil
	}
	return fmt.Errorf("%w: align %q", ErrInvalidContent, a)
}

func validateOptionalLink(l *LinkRef) error {
	if l == nil {
		return nil
	}
	return l.Validate()
}
