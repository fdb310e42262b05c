package domain

// Queue is an ordered list of tracks. Position 0 is the head: the track
// currently playing or about to play.
type Queue struct {
	tracks []Track
}

// NewQueue creates an empty Queue.
func NewQueue() Queue {
	return Queue{}
}

// Append adds a track to the end of the queue.
func (q *Queue) Append(track Track) {
	q.tracks = append(q.tracks, track)
}

// Head returns the track at position 0 without removing it.
func (q *Queue) Head() (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	return q.tracks[0], true
}

// PopHead removes and returns the track at position 0.
func (q *Queue) PopHead() (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	head := q.tracks[0]
	q.tracks[0] = Track{}
	q.tracks = q.tracks[1:]
	return head, true
}

// RotateHeadToTail moves the head to the end of the queue.
// It is a no-op on an empty queue.
func (q *Queue) RotateHeadToTail() {
	if len(q.tracks) < 2 {
		return
	}
	head := q.tracks[0]
	q.tracks = append(q.tracks[1:], head)
}

// Clear removes all tracks.
func (q *Queue) Clear() {
	q.tracks = nil
}

// Len returns the number of tracks in the queue.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// Tracks returns a copy of the queued tracks in order.
func (q *Queue) Tracks() []Track {
	result := make([]Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}
