package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose(t *testing.T) {
	facts := []Fact{
		{BarangayName: "Banlic", ReportPeriod: "2024-05", DueDate: date("2024-06-08"), DaysLeft: 7},
		{BarangayName: "Banlic", ReportPeriod: "2024-04", DueDate: date("2024-05-10"), DaysLeft: -22},
	}

	msg := Compose("Banlic", facts)

	assert.Equal(t, "Overdue report reminder: Barangay Banlic (1 overdue)", msg.Subject)
	assert.Contains(t, msg.HTML, "<td>2024-05</td>")
	assert.Contains(t, msg.HTML, "June 8, 2024")
	for _, want := range []string{"Banlic", "2024-05", "due in 7 days", "2024-04", "overdue by 22 days"} {
		assert.Contains(t, msg.Text, want)
	}
	assert.NotContains(t, msg.Text, "<td>")
}

func TestCompose_NothingOverdue(t *testing.T) {
	msg := Compose("Pulo", []Fact{{ReportPeriod: "2024-05", DueDate: date("2024-06-02"), DaysLeft: 1}})
	assert.Equal(t, "Pending report reminder: Barangay Pulo", msg.Subject)
	assert.Contains(t, msg.Text, "due in 1 day")
}

func TestCompose_EscapesBarangayName(t *testing.T) {
	msg := Compose(`<script>alert(1)</script>`, []Fact{{ReportPeriod: "2024-05", DueDate: date("2024-06-02"), DaysLeft: 1}})
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
}

func TestCompose_Deterministic(t *testing.T) {
	facts := []Fact{{ReportPeriod: "2024-05", DueDate: date("2024-06-04"), DaysLeft: 3}}
	assert.Equal(t, Compose("Mamatid", facts), Compose("Mamatid", facts))
}
