package proto

import (
	"bytes"
	"testing"

	"github.com/frankban/quicktest"
)

func TestFrameRoundTrip(t *testing.T) {
	c := quicktest.New(t)
	var buf bytes.Buffer
	body := TversionMsg{Msize: 8192, Version: Version}.Encode(nil)
	c.Assert(WriteFrame(&buf, Tversion, NoTag, body), quicktest.IsNil)

	f, err := ReadFrame(&buf, DefaultMsize)
	c.Assert(err, quicktest.IsNil)
	c.Assert(f.Verb, quicktest.Equals, Tversion)
	c.Assert(f.Tag, quicktest.Equals, NoTag)

	got, err := DecodeTversion(f.Body)
	c.Assert(err, quicktest.IsNil)
	c.Assert(got.Msize, quicktest.Equals, uint32(8192))
	c.Assert(got.Version, quicktest.Equals, Version)
}

func TestReadFrameRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	body := make([]byte, 100)
	if err := WriteFrame(&buf, Tversion, NoTag, body); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	_, err := ReadFrame(&buf, 16)
	if err == nil {
		t.Fatal("expected an oversize error")
	}
	if _, ok := err.(*FatalError); !ok {
		t.Fatalf("error = %T, want *FatalError", err)
	}
}

func TestReadFrameRejectsNonTVerb(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Rversion, NoTag, nil); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	_, err := ReadFrame(&buf, DefaultMsize)
	if err == nil {
		t.Fatal("expected a verb-parity error for an R-verb arriving as a request")
	}
}

func TestReadFrameRejectsTerror(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, Terror, NoTag, nil); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	_, err := ReadFrame(&buf, DefaultMsize)
	if err == nil {
		t.Fatal("expected Terror to be rejected as fatal")
	}
}

func TestVerbParity(t *testing.T) {
	tVerbs := []uint8{Tversion, Tauth, Tattach, Tflush, Twalk, Topen, Tcreate, Tread, Twrite, Tclunk, Tremove, Tstat, Twstat}
	rVerbs := []uint8{Rversion, Rauth, Rattach, Rflush, Rwalk, Ropen, Rcreate, Rread, Rwrite, Rclunk, Rremove, Rstat, Rwstat}
	for _, v := range tVerbs {
		if !IsTverb(v) {
			t.Errorf("IsTverb(%s) = false, want true", MessageName(v))
		}
		if v+1 == 0 {
			continue
		}
	}
	for _, v := range rVerbs {
		if IsTverb(v) {
			t.Errorf("IsTverb(%s) = true, want false", MessageName(v))
		}
	}
}

func TestMessageNameKnownVerbs(t *testing.T) {
	if got := MessageName(Tversion); got != "Tversion" {
		t.Errorf("MessageName(Tversion) = %q", got)
	}
	if got := MessageName(Rwstat); got != "Rwstat" {
		t.Errorf("MessageName(Rwstat) = %q", got)
	}
}
