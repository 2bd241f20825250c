package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/procharity/pcadmin/internal/cli/client"
)

func TestDashboardCommand(t *testing.T) {
	mock := &mockAPI{
		analytics: &client.Analytics{
			TotalUsers:        120,
			UsersWithMailing:  75,
			AddedUsersByDay:   map[string]int{"2021-03-02": 4, "2021-03-01": 10},
			MailingUsersByDay: map[string]int{"2021-03-01": 6, "2021-03-03": 1},
		},
	}

	var output bytes.Buffer
	if err := runDashboard(WithClient(mock), WithOutput(&output)); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	out := output.String()
	if !strings.Contains(out, "Total users:        120") {
		t.Errorf("expected total users, got:\n%s", out)
	}
	if !strings.Contains(out, "Users with mailing: 75") {
		t.Errorf("expected mailing users, got:\n%s", out)
	}

	// Days are sorted and merged from both series
	first := strings.Index(out, "2021-03-01")
	second := strings.Index(out, "2021-03-02")
	third := strings.Index(out, "2021-03-03")
	if first < 0 || second < first || third < second {
		t.Errorf("expected days in order, got:\n%s", out)
	}
}

func TestDashboardCommand_NoDailyData(t *testing.T) {
	mock := &mockAPI{analytics: &client.Analytics{TotalUsers: 3}}

	var output bytes.Buffer
	if err := runDashboard(WithClient(mock), WithOutput(&output)); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if strings.Contains(output.String(), "DATE") {
		t.Errorf("expected no daily table, got:\n%s", output.String())
	}
}
