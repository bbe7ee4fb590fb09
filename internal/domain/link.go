package domain

import "fmt"

type LinkKind string

const (
	LinkKindURL  LinkKind = "url"
	LinkKindPage LinkKind = "page"
)

// UnresolvedPageLabel is shown for a page link whose target is empty or no
// longer listed in the page directory.
const UnresolvedPageLabel = "Select a page..."

// LinkRef points a block action at a raw URL or at another page of the same
// project. A page link with an unknown target is dangling, not invalid.
type LinkRef struct {
	Kind  LinkKind `json:"kind"`
	Value string   `json:"value"`
}

func URLLink(url string) LinkRef {
	return LinkRef{Kind: LinkKindURL, Value: url}
}

func PageLink(pageID string) LinkRef {
	return LinkRef{Kind: LinkKindPage, Value: pageID}
}

// IsZero reports whether the link points nowhere.
func (l LinkRef) IsZero() bool {
	return l.Value == ""
}

// Validate checks the kind only; values are opaque.
func (l LinkRef) Validate() error {
	switch l.Kind {
	case LinkKindURL, LinkKindPage:
		return nil
	}
	return fmt.Errorf("%w: link kind %q", ErrInvalidContent, l.Kind)
}

func (l *LinkRef) clone() *LinkRef {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

func (l *LinkRef) value() (LinkRef, bool) {
	if l == nil {
		return LinkRef{}, false
	}
	return *l, true
}

// LinkResolution is a link as presented to the user.
type LinkResolution struct {
	Kind     LinkKind `json:"kind"`
	Value    string   `json:"value"`
	Label    string   `json:"label"`
	Resolved bool     `json:"resolved"`
}

// ResolveLink turns a link into its display form. Page links are looked up in
// dir; a missing or empty target resolves to UnresolvedPageLabel.
func ResolveLink(ref LinkRef, dir PageDirectory) LinkResolution {
	res := LinkResolution{Kind: ref.Kind, Value: ref.Value}
	switch ref.Kind {
	case LinkKindPage:
		if ref.Value != "" && dir != nil {
			if p, ok := dir.Page(ref.Value); ok {
				res.Label = p.Name
				res.Resolved = true
				return res
			}
		}
		res.Label = UnresolvedPageLabel
	default:
		res.Label = ref.Value
		res.Resolved = true
	}
	return res
}

// LinkTarget is one entry of the page selector.
type LinkTarget struct {
	PageID   string `json:"pageId"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

// LinkTargets lists every directory page as a selector option, marking the
// one ref points at. A dangling ref marks nothing.
func LinkTargets(dir PageDirectory, ref LinkRef) []LinkTarget {
	if dir == nil {
		return []LinkTarget{}
	}
	pages := dir.Pages()
	targets := make([]LinkTarget, 0, len(pages))
	for _, p := range pages {
		targets = append(targets, LinkTarget{
			PageID:   p.ID,
			Name:     p.Name,
			Selected: ref.Kind == LinkKindPage && ref.Value == p.ID,
		})
	}
	return targets
}
