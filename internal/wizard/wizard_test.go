package wizard

import (
	"errors"
	"reflect"
	"testing"

	"footprint-mirror/internal/domain"
)

func validWizard(t *testing.T) *Wizard {
	t.Helper()
	w := New()
	if err := w.SetBio("Loves hiking and open source"); err != nil {
		t.Fatalf("set bio: %v", err)
	}
	return w
}

func TestNewWizardDefaults(t *testing.T) {
	w := New()
	if w.Step() != StepIdentity {
		t.Fatalf("expected step 1, got %d", w.Step())
	}
	d := w.Draft()
	if len(d.Posts) != 1 || d.Posts[0] != "" {
		t.Fatalf("expected one empty post, got %#v", d.Posts)
	}
	if d.Persona != domain.PersonaBrand {
		t.Fatalf("expected Brand default, got %s", d.Persona)
	}
	if w.IsSubmitted() {
		t.Fatalf("new wizard must not be submitted")
	}
}

func TestAdvanceBlockedByShortBio(t *testing.T) {
	cases := []string{"", "     ", "short", "  12345  "}
	for _, bio := range cases {
		w := New()
		_ = w.SetBio(bio)
		if err := w.Advance(); !errors.Is(err, ErrStepIncomplete) {
			t.Fatalf("bio %q: expected ErrStepIncomplete, got %v", bio, err)
		}
		if w.Step() != StepIdentity {
			t.Fatalf("bio %q: step must not change, got %d", bio, w.Step())
		}
	}
}

func TestAdvanceCountsRunes(t *testing.T) {
	w := New()
	_ = w.SetBio("ñandú!")
	if err := w.Advance(); err != nil {
		t.Fatalf("expected six runes to be enough, got %v", err)
	}
}

func TestAdvanceAndRetreatClamp(t *testing.T) {
	w := validWizard(t)

	if err := w.Retreat(); err != nil {
		t.Fatalf("retreat at step 1: %v", err)
	}
	if w.Step() != StepIdentity {
		t.Fatalf("retreat must clamp at step 1, got %d", w.Step())
	}

	for i := 0; i < 5; i++ {
		if err := w.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if w.Step() != StepIntent {
		t.Fatalf("advance must clamp at step 3, got %d", w.Step())
	}
}

func TestObserverStepNeverBlocks(t *testing.T) {
	w := validWizard(t)
	_ = w.Advance()
	if w.Step() != StepObserver {
		t.Fatalf("expected step 2, got %d", w.Step())
	}
	if !w.StepValid(StepObserver) {
		t.Fatalf("step 2 must always be valid")
	}
	if err := w.Advance(); err != nil {
		t.Fatalf("step 2 must not block: %v", err)
	}
}

func TestNavigationDoesNotTouchData(t *testing.T) {
	w := validWizard(t)
	_ = w.SetUsername("@ex")
	_ = w.SetPost(0, "Shipped v2 today")
	_ = w.AddPost("second")
	_ = w.AddImage(domain.UserImage{Data: "AAAA", MIMEType: "image/png"})
	_ = w.SetPersona(domain.PersonaCreator)
	_ = w.SetDesiredPerception("reliable")
	before := w.Draft()

	moves := []func() error{w.Advance, w.Advance, w.Retreat, w.Advance, w.Retreat, w.Retreat, w.Retreat, w.Advance}
	for i, move := range moves {
		if err := move(); err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
		if got := w.Draft(); !reflect.DeepEqual(got, before) {
			t.Fatalf("move %d changed the draft: %#v vs %#v", i, got, before)
		}
	}
}

func TestEditsDoNotChangeStep(t *testing.T) {
	w := validWizard(t)
	_ = w.Advance()
	_ = w.SetBio("")
	_ = w.AddPost("x")
	_ = w.SetPersona(domain.PersonaRecruiter)
	if w.Step() != StepObserver {
		t.Fatalf("edits must not change step, got %d", w.Step())
	}
}

func TestRemovePostFloor(t *testing.T) {
	w := New()
	_ = w.SetPost(0, "only")
	if err := w.RemovePost(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	d := w.Draft()
	if len(d.Posts) != 1 || d.Posts[0] != "" {
		t.Fatalf("expected [\"\"], got %#v", d.Posts)
	}
}

func TestRemovePostKeepsOrder(t *testing.T) {
	w := New()
	_ = w.SetPost(0, "a")
	_ = w.AddPost("b")
	_ = w.AddPost("c")
	if err := w.RemovePost(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := w.Draft().Posts; !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("unexpected posts %#v", got)
	}
	if err := w.RemovePost(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := w.SetPost(-1, "x"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestImages(t *testing.T) {
	w := New()
	imgs := []domain.UserImage{
		{Data: "AA==", MIMEType: "image/png"},
		{Data: "AQ==", MIMEType: "image/jpeg"},
		{Data: "Ag==", MIMEType: "image/webp"},
	}
	for _, img := range imgs {
		if err := w.AddImage(img); err != nil {
			t.Fatalf("add image: %v", err)
		}
	}
	if got := len(w.Draft().Images); got != 3 {
		t.Fatalf("expected 3 images, got %d", got)
	}
	if err := w.RemoveImage(0); err != nil {
		t.Fatalf("remove image: %v", err)
	}
	got := w.Draft().Images
	if len(got) != 2 || got[0].MIMEType != "image/jpeg" {
		t.Fatalf("unexpected images after remove %#v", got)
	}
	if err := w.RemoveImage(2); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestSetPersonaRejectsUnknown(t *testing.T) {
	w := New()
	if err := w.SetPersona(domain.Persona("Critic")); !errors.Is(err, domain.ErrInvalidPersona) {
		t.Fatalf("expected ErrInvalidPersona, got %v", err)
	}
	if w.Draft().Persona != domain.DefaultPersona {
		t.Fatalf("persona must stay valid")
	}
}

func TestSubmitOnlyFromFinalStep(t *testing.T) {
	w := validWizard(t)
	if _, err := w.Submit(); !errors.Is(err, ErrNotFinalStep) {
		t.Fatalf("expected ErrNotFinalStep, got %v", err)
	}
	_ = w.Advance()
	if _, err := w.Submit(); !errors.Is(err, ErrNotFinalStep) {
		t.Fatalf("expected ErrNotFinalStep from step 2, got %v", err)
	}
	if w.IsSubmitted() {
		t.Fatalf("failed submit must not freeze")
	}
}

func TestSubmitRequiresValidBio(t *testing.T) {
	w := validWizard(t)
	_ = w.Advance()
	_ = w.Advance()
	if !w.CanSubmit() {
		t.Fatalf("expected CanSubmit at step 3 with valid bio")
	}
	_ = w.SetBio("hey")
	if w.CanSubmit() {
		t.Fatalf("expected CanSubmit false after bio shrinks")
	}
	if _, err := w.Submit(); !errors.Is(err, ErrStepIncomplete) {
		t.Fatalf("expected ErrStepIncomplete, got %v", err)
	}
	if _, ok := w.Submission(); ok {
		t.Fatalf("no submission must be emitted")
	}
}

func TestSubmitFreezesDraft(t *testing.T) {
	w := validWizard(t)
	_ = w.SetPost(0, "Shipped v2 today")
	_ = w.Advance()
	_ = w.Advance()

	got, err := w.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.Bio != "Loves hiking and open source" || got.Posts[0] != "Shipped v2 today" {
		t.Fatalf("unexpected submission %#v", got)
	}

	got.Posts[0] = "mutated by caller"
	stored, ok := w.Submission()
	if !ok || stored.Posts[0] != "Shipped v2 today" {
		t.Fatalf("submission must not alias the caller copy: %#v", stored)
	}

	if _, err := w.Submit(); !errors.Is(err, ErrSubmitted) {
		t.Fatalf("expected ErrSubmitted on resubmit, got %v", err)
	}
	terminal := []error{
		w.Advance(),
		w.Retreat(),
		w.SetBio("new bio value"),
		w.SetUsername("x"),
		w.AddPost("x"),
		w.RemovePost(0),
		w.AddImage(domain.UserImage{}),
		w.SetPersona(domain.PersonaCreator),
		w.SetDesiredPerception("x"),
	}
	for i, err := range terminal {
		if !errors.Is(err, ErrSubmitted) {
			t.Fatalf("operation %d: expected ErrSubmitted, got %v", i, err)
		}
	}
}

func TestStateRoundTripRestoresInvariants(t *testing.T) {
	st := State{
		Step:  7,
		Draft: domain.UserInput{Bio: "some bio text", Posts: nil},
	}
	w, err := Restore(st)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if w.Step() != StepIntent {
		t.Fatalf("expected step clamped to 3, got %d", w.Step())
	}
	d := w.Draft()
	if len(d.Posts) != 1 || d.Persona != domain.DefaultPersona {
		t.Fatalf("invariants not restored: %#v", d)
	}

	if _, err := Restore(State{Step: 1, Draft: domain.UserInput{Persona: "Critic"}}); err == nil {
		t.Fatalf("expected error for invalid persona")
	}
}

func TestStateKeepsSubmission(t *testing.T) {
	w := validWizard(t)
	_ = w.Advance()
	_ = w.Advance()
	if _, err := w.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	restored, err := Restore(w.State())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.IsSubmitted() {
		t.Fatalf("submission lost in round trip")
	}
}
