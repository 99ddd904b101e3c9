package quake

import (
	"testing"
	"time"
)

const sample = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": "us1", "properties": {"mag": 5.2, "place": "10km N of Example", "url": "https://earthquake.usgs.gov/earthquakes/eventpage/us1", "time": 1700000000000}},
    {"type": "Feature", "id": "us2", "properties": {"mag": null, "place": "Somewhere", "time": 1700000001000}},
    {"type": "Feature", "id": "", "properties": {"mag": 3.0, "place": "Nowhere", "time": 1700000002000}}
  ]
}`

func TestDecode(t *testing.T) {
	evs, err := Decode([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	us1 := evs[0]
	if us1.ID != "us1" || us1.Magnitude == nil || *us1.Magnitude != 5.2 {
		t.Fatalf("unexpected first event: %+v", us1)
	}
	if !us1.Complete() {
		t.Fatal("us1 should be complete")
	}
	want := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	if !us1.Time().Equal(want) {
		t.Fatalf("time = %s, want %s", us1.Time(), want)
	}
	if evs[1].Magnitude != nil {
		t.Fatal("null mag should decode as missing")
	}
	if evs[1].Complete() {
		t.Fatal("us2 has no magnitude and must not be complete")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("<html>")); err == nil {
		t.Fatal("expected error")
	}
	if _, err := Decode([]byte(`{"type":"Feature"}`)); err == nil {
		t.Fatal("expected error for non-collection")
	}
}

func TestCompleteRequiresPlaceText(t *testing.T) {
	mag := 4.0
	place := "  "
	ms := int64(1)
	e := Event{ID: "x", Magnitude: &mag, Place: &place, TimeMillis: &ms}
	if e.Complete() {
		t.Fatal("blank place should not count as present")
	}
	if !(Event{}).Time().IsZero() {
		t.Fatal("missing time should be zero")
	}
}
