package pages

import (
	"testing"
	"time"
)

func TestAlertDismisses(t *testing.T) {
	a := newAlert(time.Hour)
	a.Update(alertMsg{kind: alertError, text: "Network error"})
	if a.Text() != "Network error" || a.View() == "" {
		t.Fatalf("expected visible alert")
	}
	fire, ok := a.task.Pending()
	if !ok {
		t.Fatalf("expected dismiss timer")
	}
	a.Update(fire)
	if a.Text() != "" || a.View() != "" {
		t.Fatalf("expected alert dismissed")
	}
}

func TestAlertReplacementIgnoresOldTimer(t *testing.T) {
	a := newAlert(time.Hour)
	a.Show(alertSuccess, "first", time.Hour)
	old, _ := a.task.Pending()
	a.Show(alertSuccess, "second", time.Hour)
	a.Update(old)
	if a.Text() != "second" {
		t.Fatalf("stale timer dismissed the new alert")
	}
}
