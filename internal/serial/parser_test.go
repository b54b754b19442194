package serial

import (
	"regexp"
	"testing"
)

func TestParserFirstMatchWins(t *testing.T) {
	p := NewParser()

	var fired []string
	p.Add(regexp.MustCompile(`^echo:.*$`), PriorityDefault, func([]string) {
		fired = append(fired, "generic")
	})
	p.Add(regexp.MustCompile(`^echo:busy:.*$`), PriorityDefault, func([]string) {
		fired = append(fired, "busy")
	})

	// Equal priority: the newer registration is tried first.
	p.Decide("echo:busy: processing")
	if len(fired) != 1 || fired[0] != "busy" {
		t.Fatalf("fired = %v, want [busy]", fired)
	}
}

func TestParserPriorityOrdering(t *testing.T) {
	p := NewParser()

	var fired []string
	p.Add(regexp.MustCompile(`^ok.*$`), PriorityDefault, func([]string) {
		fired = append(fired, "low")
	})
	p.Add(regexp.MustCompile(`^ok\s*(.*)$`), PriorityConfirmation, func([]string) {
		fired = append(fired, "high")
	})

	p.Decide("ok T:210")
	if len(fired) != 1 || fired[0] != "high" {
		t.Fatalf("fired = %v, want [high]", fired)
	}
}

func TestParserSubmatches(t *testing.T) {
	p := NewParser()

	var got []string
	p.Add(PrintInfoRegex, PriorityDefault, func(groups []string) {
		got = groups
	})

	p.Decide("NORMAL MODE: Percent done: 42; print time remaining in mins: 10")
	if len(got) != 2 || got[1] != "42" {
		t.Fatalf("groups = %v, want whole line plus 42", got)
	}
}

func TestParserSamePatternMultipleHandlers(t *testing.T) {
	p := NewParser()
	re := regexp.MustCompile(`^Done printing file$`)

	count := 0
	p.Add(re, PriorityDefault, func([]string) { count++ })
	p.Add(re, PriorityDefault, func([]string) { count++ })

	p.Decide("Done printing file")
	if count != 2 {
		t.Errorf("handlers fired = %d, want 2", count)
	}
}

func TestParserRemoveHandler(t *testing.T) {
	p := NewParser()
	re := regexp.MustCompile(`^ok$`)

	count := 0
	id := p.Add(re, PriorityDefault, func([]string) { count++ })

	if err := p.RemoveHandler(re, id); err != nil {
		t.Fatalf("RemoveHandler: %v", err)
	}
	p.Decide("ok")
	if count != 0 {
		t.Errorf("handler fired after removal")
	}

	if err := p.RemoveHandler(re, id); err != ErrNoSuchHandler {
		t.Errorf("second removal err = %v, want ErrNoSuchHandler", err)
	}
}

func TestParserRecoversHandlerPanic(t *testing.T) {
	p := NewParser()

	p.Add(regexp.MustCompile(`^boom$`), PriorityDefault, func([]string) {
		panic("handler bug")
	})

	// Must not propagate.
	p.Decide("boom")
}

func TestParserUnmatchedLineIsDropped(t *testing.T) {
	p := NewParser()

	fired := false
	p.Add(regexp.MustCompile(`^ok$`), PriorityDefault, func([]string) { fired = true })

	p.Decide("echo:SD card ok")
	if fired {
		t.Error("anchored pattern fired on non-matching line")
	}
}
