// Package migrate rewrites block content written by older versions into the
// current schema.
package migrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"pagebuilder/internal/domain"
)

// Keys older versions used before links became a structured LinkRef.
const (
	legacyURL      = "url"
	legacyPageID   = "pageId"
	legacyLinkType = "linkType"
)

// Normalize moves legacy flat link fields of link-bearing content into the
// structured "link" field. It is idempotent: content without legacy keys is
// returned as the same bytes with changed=false. Variants without a link
// field are never touched.
func Normalize(t domain.BlockType, raw json.RawMessage) (json.RawMessage, bool, error) {
	if !t.HasLink() || len(bytes.TrimSpace(raw)) == 0 {
		return raw, false, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw, false, fmt.Errorf("%w: %s: %v", domain.ErrInvalidContent, t, err)
	}
	if fields == nil {
		return raw, false, nil
	}

	legacy, found, err := legacyLink(fields)
	if err != nil {
		return raw, false, fmt.Errorf("%w: %s: %v", domain.ErrInvalidContent, t, err)
	}
	if !found {
		return raw, false, nil
	}

	existing, err := currentLink(fields)
	if err != nil {
		return raw, false, fmt.Errorf("%w: %s: %v", domain.ErrInvalidContent, t, err)
	}
	if existing == nil || existing.IsZero() {
		encoded, err := json.Marshal(legacy)
		if err != nil {
			return raw, false, fmt.Errorf("encode link: %w", err)
		}
		fields["link"] = encoded
	}

	delete(fields, legacyURL)
	delete(fields, legacyPageID)
	delete(fields, legacyLinkType)

	out, err := json.Marshal(fields)
	if err != nil {
		return raw, false, fmt.Errorf("encode %s content: %w", t, err)
	}
	return out, true, nil
}

// legacyLink reads the flat link fields. An explicit linkType decides between
// url and pageId when both are present.
func legacyLink(fields map[string]json.RawMessage) (domain.LinkRef, bool, error) {
	var url, pageID, linkType string
	_, hasURL := fields[legacyURL]
	_, hasPage := fields[legacyPageID]
	_, hasType := fields[legacyLinkType]
	if !hasURL && !hasPage && !hasType {
		return domain.LinkRef{}, false, nil
	}

	if err := stringField(fields, legacyURL, &url); err != nil {
		return domain.LinkRef{}, false, err
	}
	if err := stringField(fields, legacyPageID, &pageID); err != nil {
		return domain.LinkRef{}, false, err
	}
	if err := stringField(fields, legacyLinkType, &linkType); err != nil {
		return domain.LinkRef{}, false, err
	}

	switch {
	case linkType == string(domain.LinkKindPage):
		return domain.PageLink(pageID), true, nil
	case linkType == string(domain.LinkKindURL):
		return domain.URLLink(url), true, nil
	case url != "":
		return domain.URLLink(url), true, nil
	case hasPage:
		return domain.PageLink(pageID), true, nil
	}
	return domain.URLLink(url), true, nil
}

func currentLink(fields map[string]json.RawMessage) (*domain.LinkRef, error) {
	raw, ok := fields["link"]
	if !ok {
		return nil, nil
	}
	var link *domain.LinkRef
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil, fmt.Errorf("decode link: %w", err)
	}
	return link, nil
}

func stringField(fields map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Block normalizes a stored block in place and reports whether it changed.
func Block(b *domain.StoredBlock) (bool, error) {
	out, changed, err := Normalize(b.Type, b.Content)
	if err != nil || !changed {
		return false, err
	}
	b.Content = out
	return true, nil
}
