package diag

type Diagnostic struct {
	Severity Severity
	Code     Code
	Subject  string // module entity, e.g. "@g", "module asm", "record 4"
	Message  string
}

func New(sev Severity, code Code, subject, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Subject: subject, Message: msg}
}

// String renders "warning W2001 @a: message".
func (d Diagnostic) String() string {
	s := d.Severity.label() + " " + d.Code.ID()
	if d.Subject != "" {
		s += " " + d.Subject
	}
	msg := d.Message
	if msg == "" {
		msg = d.Code.Title()
	}
	return s + ": " + sanitizeMessage(msg)
}

// Reporter is the minimal contract producers emit through.
type Reporter interface {
	Report(d Diagnostic)
}

// Note emits an informational diagnostic. A nil reporter drops it.
func Note(r Reporter, code Code, subject, msg string) {
	if r != nil {
		r.Report(New(SevInfo, code, subject, msg))
	}
}

// Warning emits a warning diagnostic. A nil reporter drops it.
func Warning(r Reporter, code Code, subject, msg string) {
	if r != nil {
		r.Report(New(SevWarning, code, subject, msg))
	}
}

// BagReporter writes into a Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

type dedupKey struct {
	code    Code
	sev     Severity
	subject string
	msg     string
}

// DedupReporter suppresses diagnostics already seen with the same code,
// severity, subject and message.
type DedupReporter struct {
	next Reporter
	seen map[dedupKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) Report(d Diagnostic) {
	if r == nil {
		return
	}
	key := dedupKey{code: d.Code, sev: d.Severity, subject: d.Subject, msg: d.Message}
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(d)
	}
}
