package broker

import "testing"

func TestTopicMatches(t *testing.T) {
	cases := []struct {
		topic   string
		pattern string
		want    bool
	}{
		{"elevator/3/status", "elevator/+/status", true},
		{"elevator/3/status", "elevator/+/door", false},
		{"floor/5/button_pressed/up", "floor/+/button_pressed/#", true},
		{"floor/5/button_pressed/down", "floor/+/button_pressed/#", true},
		{"elevator/3/status", "elevator/#", true},
		{"elevator/3/actual_floor", "elevator/#", true},
		{"floor/3/waiting_count", "elevator/#", false},
		{"simulation/reset", "simulation/reset", true},
		{"simulation/reset/extra", "simulation/reset", false},
	}

	for _, c := range cases {
		got := Topic(c.topic).Matches(c.pattern)
		if got != c.want {
			t.Errorf("Topic(%q).Matches(%q) = %v, want %v", c.topic, c.pattern, got, c.want)
		}
	}
}

func TestSegmentInt(t *testing.T) {
	id, err := SegmentInt("elevator/7/status", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Errorf("got %d, want 7", id)
	}

	if _, err := SegmentInt("elevator/abc/status", 1); err == nil {
		t.Error("expected error for non-integer segment")
	}

	if _, err := SegmentInt("elevator/7/status", 9); err == nil {
		t.Error("expected error for out-of-range index")
	}
}

func TestCarTopicAndFloorTopic(t *testing.T) {
	if got := CarTopic("elevator/%d/status", 2); got != "elevator/2/status" {
		t.Errorf("got %q", got)
	}
	if got := FloorTopic("floor/%d/waiting_count", 4); got != "floor/4/waiting_count" {
		t.Errorf("got %q", got)
	}
}
