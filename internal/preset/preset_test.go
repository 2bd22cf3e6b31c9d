package preset

import (
	"errors"
	"strings"
	"testing"

	"github.com/AnyUserName/bambi-editor/internal/filter"
)

func TestGetFallback(t *testing.T) {
	p := Get("does-not-exist")
	if p.Name != "does-not-exist" || len(p.Steps) != 0 || p.Quality != 90 {
		t.Errorf("fallback: %+v", p)
	}
	if _, ok := Lookup("does-not-exist"); ok {
		t.Error("Lookup found an unknown preset")
	}
	if p := Get("old-photo"); len(p.Steps) != 3 || p.Steps[0].Kind != filter.Sepia {
		t.Errorf("old-photo: %+v", p)
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("not sorted: %v", names)
		}
	}
	if len(names) != len(presets) {
		t.Errorf("got %d names", len(names))
	}
}

func TestParseStep(t *testing.T) {
	cases := []struct {
		in   string
		want Step
	}{
		{"sepia", Step{Kind: filter.Sepia}},
		{"Rotate-CW", Step{Kind: filter.Rotate90CW}},
		{"red=3", Step{Kind: filter.Red, Slider: 3}},
		{"brightness=-4", Step{Kind: filter.Brightness, Slider: -4}},
		{"scale=50", Step{Kind: filter.Scale, Percent: 50}},
	}
	for _, c := range cases {
		got, err := ParseStep(c.in)
		if err != nil {
			t.Errorf("%s: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("%s: got %+v want %+v", c.in, got, c.want)
		}
		if _, err := ParseStep(got.String()); err != nil {
			t.Errorf("%s: String() does not parse back: %v", c.in, err)
		}
	}

	for _, bad := range []string{"red", "sepia=2", "scale=big", "twirl"} {
		if _, err := ParseStep(bad); err == nil {
			t.Errorf("%s: expected error", bad)
		}
	}
}

type fakeSession struct {
	calls []string
	fail  filter.Kind
}

var errFake = errors.New("fake failure")

func (f *fakeSession) record(s string, k filter.Kind) error {
	f.calls = append(f.calls, s)
	if k == f.fail {
		return errFake
	}
	return nil
}

func (f *fakeSession) Apply(k filter.Kind) error { return f.record("apply "+k.Name(), k) }
func (f *fakeSession) Adjust(k filter.Kind, v int) error {
	return f.record("adjust "+k.Name(), k)
}
func (f *fakeSession) Scale(p int) error { return f.record("scale", filter.Scale) }

func TestRun(t *testing.T) {
	s := &fakeSession{fail: filter.Refresh}
	steps := append(Get("old-photo").Steps, Step{Kind: filter.Scale, Percent: 50})
	if err := Run(s, steps); err != nil {
		t.Fatal(err)
	}
	got := strings.Join(s.calls, ",")
	if got != "apply sepia,adjust contrast,adjust brightness,scale" {
		t.Errorf("calls: %s", got)
	}

	s = &fakeSession{fail: filter.Contrast}
	err := Run(s, Get("old-photo").Steps)
	if !errors.Is(err, errFake) || len(s.calls) != 2 {
		t.Errorf("run did not stop at the failing step: %v %v", err, s.calls)
	}
}
