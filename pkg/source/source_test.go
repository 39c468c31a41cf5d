package source

import (
	"context"
	"testing"

	"github.com/matzehuels/proxysheet/pkg/errors"
)

type stubResolver struct {
	name  string
	calls []Card
}

func (s *stubResolver) Resolve(_ context.Context, c Card) (Images, error) {
	s.calls = append(s.calls, c)
	return Images{Name: s.name, Front: []byte(s.name)}, nil
}

func (s *stubResolver) Name() string { return s.name }

func TestDispatcher_Routes(t *testing.T) {
	remote := &stubResolver{name: "remote"}
	custom := &stubResolver{name: "custom"}
	d := &Dispatcher{Remote: remote, Custom: custom}

	imgs, err := d.Resolve(context.Background(), Remote{Name: "Lightning Bolt"})
	if err != nil {
		t.Fatalf("Resolve(Remote) error: %v", err)
	}
	if imgs.Name != "remote" {
		t.Errorf("Resolve(Remote) routed to %q", imgs.Name)
	}

	imgs, err = d.Resolve(context.Background(), Custom{Name: "Token"})
	if err != nil {
		t.Fatalf("Resolve(Custom) error: %v", err)
	}
	if imgs.Name != "custom" {
		t.Errorf("Resolve(Custom) routed to %q", imgs.Name)
	}

	if len(remote.calls) != 1 || len(custom.calls) != 1 {
		t.Errorf("calls = %d remote, %d custom, want 1 each", len(remote.calls), len(custom.calls))
	}
}

func TestDispatcher_MissingResolver(t *testing.T) {
	d := &Dispatcher{Remote: &stubResolver{name: "remote"}}
	_, err := d.Resolve(context.Background(), Custom{Name: "Token"})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Resolve() error = %v, want UNSUPPORTED", err)
	}
}

func TestCard_Label(t *testing.T) {
	tests := []struct {
		card Card
		want string
	}{
		{Remote{Name: "Lightning Bolt"}, "Lightning Bolt"},
		{Remote{Name: "Lightning Bolt", Set: "m10", Number: "146"}, "Lightning Bolt (M10) 146"},
		{Remote{Set: "m10", Number: "146"}, "M10 146"},
		{Custom{Name: "Goblin Token"}, "Goblin Token"},
		{Custom{FrontPath: "art/goblin.png"}, "art/goblin.png"},
		{Custom{FrontPath: "data:image/png;base64,AAAA"}, "custom card"},
	}
	for _, tt := range tests {
		if got := tt.card.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestFinish_ZeroValuePrintsBorders(t *testing.T) {
	var c Card = Remote{Name: "Lightning Bolt"}
	if f := c.Finish(); f.NoFrontBorder || f.NoBackBorder {
		t.Errorf("Finish() = %+v, want borders on", f)
	}
	c = Custom{Print: Finish{NoBackBorder: true}}
	if !c.Finish().NoBackBorder {
		t.Error("Finish().NoBackBorder = false, want true")
	}
}
