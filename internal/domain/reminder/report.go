package reminder

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Delivery is the outcome of sending a digest to one recipient.
type Delivery struct {
	Recipient string
	Err       error
}

func (d Delivery) MarshalJSON() ([]byte, error) {
	out := struct {
		Recipient string `json:"recipient"`
		Status    string `json:"status"`
		Error     string `json:"error,omitempty"`
	}{Recipient: d.Recipient, Status: "sent"}
	if d.Err != nil {
		out.Status = "failed"
		out.Error = d.Err.Error()
	}
	return json.Marshal(out)
}

// BarangayRun is one barangay's digest and its deliveries.
type BarangayRun struct {
	ID         uuid.UUID  `json:"barangay_id"`
	Name       string     `json:"barangay_name"`
	Facts      []Fact     `json:"facts"`
	Deliveries []Delivery `json:"deliveries"`
}

// RunReport records what a run selected and sent. Barangays without facts
// are left out.
type RunReport struct {
	Date      time.Time     `json:"date"`
	Mode      Mode          `json:"mode"`
	Barangays []BarangayRun `json:"barangays"`
}

func (r *RunReport) FactCount() int {
	n := 0
	for _, b := range r.Barangays {
		n += len(b.Facts)
	}
	return n
}

// Dispatched counts delivery attempts, successful or not.
func (r *RunReport) Dispatched() int {
	n := 0
	for _, b := range r.Barangays {
		n += len(b.Deliveries)
	}
	return n
}

func (r *RunReport) Failed() int {
	n := 0
	for _, b := range r.Barangays {
		for _, d := range b.Deliveries {
			if d.Err != nil {
				n++
			}
		}
	}
	return n
}

// Print writes the operator report. Nothing is written when no reminders
// were due.
func (r *RunReport) Print(w io.Writer) error {
	if len(r.Barangays) == 0 {
		return nil
	}
	p := &printer{w: w}
	p.printf("Pending report reminders for %s\n", r.Date.Format("2006-01-02"))
	for _, b := range r.Barangays {
		p.printf("\nBarangay %s: %d reminder(s)\n", b.Name, len(b.Facts))
		for _, f := range b.Facts {
			p.printf("  %s  due %s  %s\n", f.ReportPeriod, f.DueDate.Format("2006-01-02"), f.Describe())
		}
		if len(b.Deliveries) == 0 {
			p.printf("  (no active recipients)\n")
		}
		for _, d := range b.Deliveries {
			if d.Err != nil {
				p.printf("  -> %s: FAILED: %v\n", d.Recipient, d.Err)
			} else {
				p.printf("  -> %s: sent\n", d.Recipient)
			}
		}
	}
	p.printf("\n%d digest(s) attempted, %d failed\n", r.Dispatched(), r.Failed())
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
