package domain

import (
	"testing"
)

func titles(tracks []Track) []string {
	result := make([]string, len(tracks))
	for i, t := range tracks {
		result[i] = t.Title
	}
	return result
}

func equalTitles(a []Track, want ...string) bool {
	got := titles(a)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func newTestQueue(names ...string) Queue {
	q := NewQueue()
	for _, name := range names {
		q.Append(NewTrack("https://audio.example/"+name, name))
	}
	return q
}

func TestQueue_PopHead(t *testing.T) {
	q := newTestQueue("a", "b", "c")

	got, ok := q.PopHead()
	if !ok {
		t.Fatal("expected a track from non-empty queue")
	}
	if got.Title != "a" {
		t.Errorf("expected head %q, got %q", "a", got.Title)
	}
	if !equalTitles(q.Tracks(), "b", "c") {
		t.Errorf("expected [b c], got %v", titles(q.Tracks()))
	}
}

func TestQueue_PopHead_Empty(t *testing.T) {
	q := NewQueue()

	if _, ok := q.PopHead(); ok {
		t.Error("expected no track from empty queue")
	}
}

func TestQueue_RotateHeadToTail(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "three tracks", input: []string{"a", "b", "c"}, want: []string{"b", "c", "a"}},
		{name: "single track", input: []string{"a"}, want: []string{"a"}},
		{name: "empty", input: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTestQueue(tt.input...)
			q.RotateHeadToTail()

			if !equalTitles(q.Tracks(), tt.want...) {
				t.Errorf("expected %v, got %v", tt.want, titles(q.Tracks()))
			}
		})
	}
}

func TestQueue_Head(t *testing.T) {
	q := newTestQueue("a", "b")

	head, ok := q.Head()
	if !ok || head.Title != "a" {
		t.Errorf("expected head %q, got %q (ok=%v)", "a", head.Title, ok)
	}
	if q.Len() != 2 {
		t.Errorf("expected Head to leave length 2, got %d", q.Len())
	}
}

func TestQueue_TracksReturnsCopy(t *testing.T) {
	q := newTestQueue("a", "b")

	tracks := q.Tracks()
	tracks[0] = NewTrack("x", "x")

	head, _ := q.Head()
	if head.Title != "a" {
		t.Errorf("expected queue to be unaffected, got head %q", head.Title)
	}
}

func TestQueue_DuplicatesAreIndependent(t *testing.T) {
	q := newTestQueue("a", "a")

	q.PopHead()
	if q.Len() != 1 {
		t.Errorf("expected one duplicate to remain, got length %d", q.Len())
	}
}
