package mentions

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/avelasquez/taskflow-backend/internal/users"
	"github.com/avelasquez/taskflow-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
)

const (
	markerSelector = `span[data-type="mention"]`
	attrUserID     = "data-id"
	attrLabel      = "data-label"
	attrNotified   = "data-notified"
)

// Mention is one resolved, not-yet-notified mention found in editor HTML.
type Mention struct {
	UserID  int64
	Label   string
	Content string
}

// Result carries the mentions worth notifying for a single parse.
type Result struct {
	Mentions []Mention
}

// UserIDs returns the mentioned user ids in document order.
func (r Result) UserIDs() []int64 {
	ids := make([]int64, 0, len(r.Mentions))
	for _, m := range r.Mentions {
		ids = append(ids, m.UserID)
	}
	return ids
}

// Labels returns the mention labels in document order.
func (r Result) Labels() []string {
	labels := make([]string, 0, len(r.Mentions))
	for _, m := range r.Mentions {
		labels = append(labels, m.Label)
	}
	return labels
}

// ParseInput scopes a parse to its owning entity.
type ParseInput struct {
	HTML string
	Type enums.NotificationType
	// ContextLabel overrides the type name in the notification content,
	// e.g. the post title.
	ContextLabel string
}

// Extractor finds mention markers in rich-text HTML and resolves them
// against the user directory.
type Extractor struct {
	directory users.Directory
}

func NewExtractor(directory users.Directory) *Extractor {
	return &Extractor{directory: directory}
}

// Parse scans the HTML for mention markers that have not been notified yet,
// deduplicates them by user id (first occurrence wins) and drops ids that do
// not resolve to an existing user. No valid mentions is an empty result, not
// an error.
func (e *Extractor) Parse(ctx context.Context, input ParseInput) (Result, error) {
	candidates, err := scan(input.HTML)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return Result{}, nil
	}

	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.UserID)
	}
	existing, err := e.directory.ExistingIDs(ctx, ids)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve mentioned users")
	}

	label := strings.TrimSpace(input.ContextLabel)
	if label == "" {
		label = input.Type.Label()
	}

	var result Result
	for _, c := range candidates {
		if !existing[c.UserID] {
			continue
		}
		result.Mentions = append(result.Mentions, Mention{
			UserID:  c.UserID,
			Label:   c.Label,
			Content: fmt.Sprintf("You were mentioned in %s", label),
		})
	}
	return result, nil
}

type candidate struct {
	UserID int64
	Label  string
}

// scan extracts unnotified markers with a positive integer id and a
// non-empty label, first occurrence per user id.
func scan(html string) ([]candidate, error) {
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse rich text")
	}

	seen := map[int64]bool{}
	var candidates []candidate
	doc.Find(markerSelector).Each(func(_ int, sel *goquery.Selection) {
		if notified, _ := sel.Attr(attrNotified); notified == "true" {
			return
		}
		raw, ok := sel.Attr(attrUserID)
		if !ok {
			return
		}
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 {
			return
		}
		label := strings.TrimSpace(sel.AttrOr(attrLabel, ""))
		if label == "" {
			return
		}
		if seen[id] {
			return
		}
		seen[id] = true
		candidates = append(candidates, candidate{UserID: id, Label: label})
	})
	return candidates, nil
}

// MarkNotified flips the notified flag on exactly the markers whose user id
// is in notifiedIDs and returns the rewritten HTML. Applying it twice with
// the same id set yields the same output.
func MarkNotified(html string, notifiedIDs []int64) (string, error) {
	if strings.TrimSpace(html) == "" || len(notifiedIDs) == 0 {
		return html, nil
	}
	notified := make(map[int64]bool, len(notifiedIDs))
	for _, id := range notifiedIDs {
		notified[id] = true
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse rich text")
	}

	doc.Find(markerSelector).Each(func(_ int, sel *goquery.Selection) {
		raw, ok := sel.Attr(attrUserID)
		if !ok {
			return
		}
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return
		}
		if notified[id] {
			sel.SetAttr(attrNotified, "true")
		}
	})

	// goquery wraps fragments in html/body; return the body's inner HTML.
	out, err := doc.Find("body").Html()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render rich text")
	}
	return out, nil
}
