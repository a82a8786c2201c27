package mentions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/avelasquez/taskflow-backend/pkg/enums"
	pkgerrors "github.com/avelasquez/taskflow-backend/pkg/errors"
)

type fakeDirectory struct {
	namesFn    func(ctx context.Context, ids []int64) (map[int64]string, error)
	existingFn func(ctx context.Context, ids []int64) (map[int64]bool, error)
}

func (f *fakeDirectory) NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	if f.namesFn != nil {
		return f.namesFn(ctx, ids)
	}
	return map[int64]string{}, nil
}

func (f *fakeDirectory) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	if f.existingFn != nil {
		return f.existingFn(ctx, ids)
	}
	existing := map[int64]bool{}
	for _, id := range ids {
		existing[id] = true
	}
	return existing, nil
}

func marker(id, label, notified string) string {
	return `<span data-type="mention" data-id="` + id + `" data-label="` + label + `" data-notified="` + notified + `">@` + label + `</span>`
}

func TestParseCollectsUnnotifiedMentions(t *testing.T) {
	html := "<p>" + marker("5", "Ana", "false") + " and " + marker("9", "Bo", "false") + "</p>"

	ex := NewExtractor(&fakeDirectory{})
	result, err := ex.Parse(context.Background(), ParseInput{
		HTML:         html,
		Type:         enums.NotificationTypeComment,
		ContextLabel: "Ship the release",
	})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(result.Mentions) != 2 {
		t.Fatalf("expected 2 mentions, got %d", len(result.Mentions))
	}
	if result.Mentions[0].UserID != 5 || result.Mentions[1].UserID != 9 {
		t.Fatalf("unexpected mention order: %v", result.UserIDs())
	}
	want := `You were mentioned in Ship the release`
	if result.Mentions[0].Content != want {
		t.Fatalf("unexpected content %q", result.Mentions[0].Content)
	}
}

func TestParseFallsBackToTypeLabel(t *testing.T) {
	html := marker("5", "Ana", "false")

	ex := NewExtractor(&fakeDirectory{})
	result, err := ex.Parse(context.Background(), ParseInput{HTML: html, Type: enums.NotificationTypeComment})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(result.Mentions) != 1 {
		t.Fatalf("expected 1 mention, got %d", len(result.Mentions))
	}
	if result.Mentions[0].Content != "You were mentioned in a comment" {
		t.Fatalf("unexpected content %q", result.Mentions[0].Content)
	}
}

func TestParseSkipsNotifiedAndInvalidMarkers(t *testing.T) {
	html := strings.Join([]string{
		marker("5", "Ana", "true"),  // already notified
		marker("0", "Zero", "false"),
		marker("-3", "Neg", "false"),
		marker("x", "NaN", "false"),
		marker("7", "", "false"),   // empty label
		marker("9", "Bo", "false"), // the only valid one
	}, " ")

	ex := NewExtractor(&fakeDirectory{})
	result, err := ex.Parse(context.Background(), ParseInput{HTML: html, Type: enums.NotificationTypeComment})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(result.Mentions) != 1 || result.Mentions[0].UserID != 9 {
		t.Fatalf("expected only user 9, got %v", result.UserIDs())
	}
}

func TestParseDeduplicatesByUserID(t *testing.T) {
	html := marker("5", "Ana", "false") + marker("5", "Ana Again", "false")

	ex := NewExtractor(&fakeDirectory{})
	result, err := ex.Parse(context.Background(), ParseInput{HTML: html, Type: enums.NotificationTypeComment})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(result.Mentions) != 1 {
		t.Fatalf("expected first occurrence only, got %d mentions", len(result.Mentions))
	}
	if result.Mentions[0].Label != "Ana" {
		t.Fatalf("expected first label to win, got %q", result.Mentions[0].Label)
	}
}

func TestParseDropsUnresolvableUsers(t *testing.T) {
	html := marker("5", "Ana", "false") + marker("404", "Ghost", "false")

	ex := NewExtractor(&fakeDirectory{
		existingFn: func(ctx context.Context, ids []int64) (map[int64]bool, error) {
			return map[int64]bool{5: true}, nil
		},
	})
	result, err := ex.Parse(context.Background(), ParseInput{HTML: html, Type: enums.NotificationTypeComment})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(result.Mentions) != 1 || result.Mentions[0].UserID != 5 {
		t.Fatalf("expected ghost user dropped silently, got %v", result.UserIDs())
	}
}

func TestParseDirectoryFailure(t *testing.T) {
	ex := NewExtractor(&fakeDirectory{
		existingFn: func(ctx context.Context, ids []int64) (map[int64]bool, error) {
			return nil, errors.New("db down")
		},
	})
	_, err := ex.Parse(context.Background(), ParseInput{
		HTML: marker("5", "Ana", "false"),
		Type: enums.NotificationTypeComment,
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestParseEmptyHTML(t *testing.T) {
	ex := NewExtractor(&fakeDirectory{})
	result, err := ex.Parse(context.Background(), ParseInput{HTML: "  ", Type: enums.NotificationTypeComment})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(result.Mentions) != 0 {
		t.Fatalf("expected no mentions, got %d", len(result.Mentions))
	}
}

func TestMarkNotifiedFlipsOnlyListedIDs(t *testing.T) {
	html := "<p>" + marker("5", "Ana", "false") + marker("9", "Bo", "false") + "</p>"

	out, err := MarkNotified(html, []int64{5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `data-id="5" data-label="Ana" data-notified="true"`) {
		t.Fatalf("user 5 not flipped: %s", out)
	}
	if !strings.Contains(out, `data-id="9" data-label="Bo" data-notified="false"`) {
		t.Fatalf("user 9 should stay unnotified: %s", out)
	}
}

func TestMarkNotifiedIsIdempotent(t *testing.T) {
	html := "<p>" + marker("5", "Ana", "false") + "</p>"

	once, err := MarkNotified(html, []int64{5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := MarkNotified(once, []int64{5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if once != twice {
		t.Fatalf("second application changed output:\n%s\nvs\n%s", once, twice)
	}
}

func TestMarkNotifiedThenParseYieldsNothing(t *testing.T) {
	html := marker("5", "Ana", "false")

	out, err := MarkNotified(html, []int64{5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ex := NewExtractor(&fakeDirectory{})
	result, err := ex.Parse(context.Background(), ParseInput{HTML: out, Type: enums.NotificationTypeComment})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(result.Mentions) != 0 {
		t.Fatalf("expected consumed mentions to stay silent, got %v", result.UserIDs())
	}
}
