package dataset

import (
	"errors"
	"reflect"
	"testing"
)

// recordingCallback notes every hook invocation and can be armed to fail.
type recordingCallback struct {
	name   string
	log    *[]string
	failOn string
}

func (r *recordingCallback) note(hook string) error {
	*r.log = append(*r.log, r.name+"."+hook)
	if r.failOn == hook {
		return errors.New(r.name + " failed on " + hook)
	}
	return nil
}

func (r *recordingCallback) OnStart(*StartEvent) error               { return r.note("start") }
func (r *recordingCallback) OnSubjectStart(*SubjectStartEvent) error { return r.note("subject_start") }
func (r *recordingCallback) OnImageFile(*ImageFileEvent) error       { return r.note("image_file") }
func (r *recordingCallback) OnGTFile(*GTFileEvent) error             { return r.note("gt_file") }
func (r *recordingCallback) OnSubjectEnd(*SubjectEndEvent) error     { return r.note("subject_end") }
func (r *recordingCallback) OnEnd(*EndEvent) error                   { return r.note("end") }

func TestNopCallback_AllHooks(t *testing.T) {
	var cb Callback = NopCallback{}

	if err := cb.OnStart(&StartEvent{}); err != nil {
		t.Errorf("OnStart: %v", err)
	}
	if err := cb.OnSubjectStart(&SubjectStartEvent{}); err != nil {
		t.Errorf("OnSubjectStart: %v", err)
	}
	if err := cb.OnImageFile(&ImageFileEvent{}); err != nil {
		t.Errorf("OnImageFile: %v", err)
	}
	if err := cb.OnGTFile(&GTFileEvent{}); err != nil {
		t.Errorf("OnGTFile: %v", err)
	}
	if err := cb.OnSubjectEnd(&SubjectEndEvent{}); err != nil {
		t.Errorf("OnSubjectEnd: %v", err)
	}
	if err := cb.OnEnd(&EndEvent{}); err != nil {
		t.Errorf("OnEnd: %v", err)
	}
}

func TestCompose_Order(t *testing.T) {
	var log []string
	a := &recordingCallback{name: "a", log: &log}
	b := &recordingCallback{name: "b", log: &log}
	c := NewCompose(a, b)

	if err := c.OnStart(&StartEvent{}); err != nil {
		t.Fatalf("OnStart: %v", err)
	}
	if err := c.OnSubjectEnd(&SubjectEndEvent{}); err != nil {
		t.Fatalf("OnSubjectEnd: %v", err)
	}

	want := []string{"a.start", "b.start", "a.subject_end", "b.subject_end"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("dispatch order = %v, want %v", log, want)
	}
}

func TestCompose_FailFast(t *testing.T) {
	var log []string
	a := &recordingCallback{name: "a", log: &log, failOn: "start"}
	b := &recordingCallback{name: "b", log: &log}
	c := NewCompose(a, b)

	if err := c.OnStart(&StartEvent{}); err == nil {
		t.Fatal("OnStart should propagate the child error")
	}
	want := []string{"a.start"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("dispatch after failure = %v, want %v", log, want)
	}
}

func TestCompose_Empty(t *testing.T) {
	c := NewCompose()
	if err := c.OnEnd(&EndEvent{}); err != nil {
		t.Errorf("empty compose OnEnd: %v", err)
	}
}
