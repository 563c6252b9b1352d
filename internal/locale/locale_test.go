package locale

import (
	"testing"
	"time"
)

func TestFrenchTable(t *testing.T) {
	tab := Default()
	if tab.Tag != "fr" {
		t.Fatalf("expected default tag fr, got %s", tab.Tag)
	}
	if got := tab.Weekday(time.Monday); got != "Lundi" {
		t.Errorf("expected Lundi, got %s", got)
	}
	if got := tab.Weekday(time.Sunday); got != "Dimanche" {
		t.Errorf("expected Dimanche, got %s", got)
	}
	if got := tab.Month(time.February); got != "Fevrier" {
		t.Errorf("expected Fevrier, got %s", got)
	}
	if got := tab.Month(time.August); got != "Aout" {
		t.Errorf("expected Aout, got %s", got)
	}
	if got := tab.Month(time.December); got != "Decembre" {
		t.Errorf("expected Decembre, got %s", got)
	}
}

func TestForTag(t *testing.T) {
	if tab, ok := ForTag("en"); !ok || tab.Month(time.August) != "August" {
		t.Errorf("expected English table for en, got %+v ok=%v", tab, ok)
	}
	if tab, ok := ForTag(""); !ok || tab.Tag != "fr" {
		t.Errorf("expected French table for empty tag, got %+v ok=%v", tab, ok)
	}
	if _, ok := ForTag("de"); ok {
		t.Error("expected unknown tag to be rejected")
	}
}

func TestDayMonth(t *testing.T) {
	day := time.Date(2025, time.December, 2, 0, 0, 0, 0, time.UTC)
	if got := Default().DayMonth(day); got != "2 Decembre" {
		t.Errorf("expected 2 Decembre, got %s", got)
	}
}
